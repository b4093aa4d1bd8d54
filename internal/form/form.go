package form

import (
	"maps"
	"sync"
)

// GeneralKey is the reserved error key for form-wide errors.
const GeneralKey = "_general"

// General returns the reserved form-wide error key for a field-key type.
func General[K ~string]() K {
	return K(GeneralKey)
}

// FieldValidator validates a single field. values holds the full current
// field set so cross-field rules (confirm password) can be expressed.
// An empty return means the field is valid.
type FieldValidator[K ~string, V any] func(name K, value V, values map[K]V) string

// Result is what a FormValidator reports for the whole field set.
type Result[K ~string] struct {
	Errors map[K]string
	Valid  bool
}

// FormValidator validates the full field set at once.
type FormValidator[K ~string, V any] func(values map[K]V) Result[K]

// Config wires validators and the default touched set into a Form.
type Config[K ~string, V any] struct {
	ValidateField  FieldValidator[K, V]
	ValidateForm   FormValidator[K, V]
	DefaultTouched map[K]bool
}

// State is a point-in-time copy of a form.
type State[K ~string, V any] struct {
	Values     map[K]V
	Errors     map[K]string
	Touched    map[K]bool
	Submitting bool
}

// Form holds field values, per-field errors, touched flags and the
// submitting flag for one page-level form.
type Form[K ~string, V any] struct {
	mu sync.Mutex

	initial        map[K]V
	defaultTouched map[K]bool
	validateField  FieldValidator[K, V]
	validateForm   FormValidator[K, V]

	values     map[K]V
	errors     map[K]string
	touched    map[K]bool
	submitting bool
}

// New creates a form from initial values. The initial and default-touched
// maps are copied; ResetForm always returns to these copies.
func New[K ~string, V any](initial map[K]V, cfg Config[K, V]) *Form[K, V] {
	f := &Form[K, V]{
		initial:        cloneMap(initial),
		defaultTouched: cloneMap(cfg.DefaultTouched),
		validateField:  cfg.ValidateField,
		validateForm:   cfg.ValidateForm,
	}
	f.values = cloneMap(f.initial)
	f.errors = make(map[K]string)
	f.touched = cloneMap(f.defaultTouched)
	return f
}

// UpdateField sets a value. Touched fields are re-validated immediately;
// untouched fields keep whatever error they had until they are touched.
func (f *Form[K, V]) UpdateField(name K, value V) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[name] = value
	if f.touched[name] {
		f.validateFieldLocked(name)
	}
}

// UpdateFields merges several values without validating them.
func (f *Form[K, V]) UpdateFields(values map[K]V) {
	f.mu.Lock()
	defer f.mu.Unlock()

	maps.Copy(f.values, values)
}

// SetForm replaces the whole value set, e.g. when editing an existing record.
func (f *Form[K, V]) SetForm(values map[K]V) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = cloneMap(values)
}

// SetFieldTouched marks a field touched and re-validates it.
func (f *Form[K, V]) SetFieldTouched(name K) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.touched[name] = true
	f.validateFieldLocked(name)
}

// SetFieldsTouched marks several fields touched without validating them.
func (f *Form[K, V]) SetFieldsTouched(names ...K) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, name := range names {
		f.touched[name] = true
	}
}

// ValidateField runs the field validator for name against the current value
// and records the result.
func (f *Form[K, V]) ValidateField(name K) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.validateFieldLocked(name)
}

// ValidateForm runs the form validator, replaces all errors with its result
// and marks every field touched. Without a form validator the form is
// always valid and errors are left as they are.
func (f *Form[K, V]) ValidateForm() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.validateForm == nil {
		return true
	}

	result := f.validateForm(cloneMap(f.values))
	f.errors = make(map[K]string, len(result.Errors))
	for name, msg := range result.Errors {
		if msg != "" {
			f.errors[name] = msg
		}
	}

	for name := range f.values {
		f.touched[name] = true
	}
	return result.Valid
}

// ResetForm restores the initial values and default touched set and clears
// every error.
func (f *Form[K, V]) ResetForm() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = cloneMap(f.initial)
	f.errors = make(map[K]string)
	f.touched = cloneMap(f.defaultTouched)
}

// SetSubmitting toggles the submitting flag.
func (f *Form[K, V]) SetSubmitting(submitting bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.submitting = submitting
}

// SetGeneralError records a form-wide error, typically a failed submit.
func (f *Form[K, V]) SetGeneralError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg == "" {
		delete(f.errors, General[K]())
		return
	}
	f.errors[General[K]()] = msg
}

// Value returns the current value of a field.
func (f *Form[K, V]) Value(name K) V {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.values[name]
}

// Values returns a copy of the current values.
func (f *Form[K, V]) Values() map[K]V {
	f.mu.Lock()
	defer f.mu.Unlock()

	return cloneMap(f.values)
}

// Error returns the recorded error for a field, visible or not.
func (f *Form[K, V]) Error(name K) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.errors[name]
}

// VisibleError returns the field's error only once the field is touched.
// The general error is always visible.
func (f *Form[K, V]) VisibleError(name K) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if name != General[K]() && !f.touched[name] {
		return ""
	}
	return f.errors[name]
}

// Touched reports whether a field has been touched.
func (f *Form[K, V]) Touched(name K) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.touched[name]
}

// Submitting reports whether a submit is in flight.
func (f *Form[K, V]) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.submitting
}

// State returns a copy of the complete form state.
func (f *Form[K, V]) State() State[K, V] {
	f.mu.Lock()
	defer f.mu.Unlock()

	return State[K, V]{
		Values:     cloneMap(f.values),
		Errors:     cloneMap(f.errors),
		Touched:    cloneMap(f.touched),
		Submitting: f.submitting,
	}
}

// IsDirty reports whether any value differs from the initial snapshot.
func IsDirty[K ~string, V comparable](f *Form[K, V]) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, value := range f.values {
		if initial, ok := f.initial[name]; !ok || initial != value {
			return true
		}
	}
	return len(f.values) != len(f.initial)
}

func (f *Form[K, V]) validateFieldLocked(name K) string {
	if f.validateField == nil {
		return ""
	}
	msg := f.validateField(name, f.values[name], cloneMap(f.values))
	if msg == "" {
		delete(f.errors, name)
	} else {
		f.errors[name] = msg
	}
	return msg
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	maps.Copy(out, in)
	return out
}
