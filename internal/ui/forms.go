package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/ecoshop/internal/form"
)

// fieldSpec describes one input of a form view.
type fieldSpec[K ~string] struct {
	name     K
	label    string
	secret   bool
	optional bool
}

// formView binds text inputs to a form.Form. Values flow into the form on
// every key press; a field is touched when focus leaves it.
type formView[K ~string] struct {
	title  string
	form   *form.Form[K, string]
	specs  []fieldSpec[K]
	inputs []textinput.Model
	focus  int
}

func newFormView[K ~string](title string, f *form.Form[K, string], specs []fieldSpec[K]) *formView[K] {
	v := &formView[K]{title: title, form: f, specs: specs}
	v.inputs = make([]textinput.Model, len(specs))
	for i, spec := range specs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		if spec.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		v.inputs[i] = in
	}
	v.sync()
	v.setFocus(0)
	return v
}

// sync copies the form's values into the inputs, e.g. after a reset.
func (v *formView[K]) sync() {
	for i, spec := range v.specs {
		v.inputs[i].SetValue(v.form.Value(spec.name))
	}
}

func (v *formView[K]) setFocus(i int) {
	if len(v.inputs) == 0 {
		return
	}
	i = (i + len(v.inputs)) % len(v.inputs)
	for j := range v.inputs {
		if j == i {
			v.inputs[j].Focus()
		} else {
			v.inputs[j].Blur()
		}
	}
	v.focus = i
}

// move shifts focus by delta, touching the field being left.
func (v *formView[K]) move(delta int) {
	v.form.SetFieldTouched(v.specs[v.focus].name)
	v.setFocus(v.focus + delta)
}

// Update handles a key press. submit is true when the user asked to submit.
func (v *formView[K]) Update(msg tea.KeyMsg, keys keyMap) (submit bool, cmd tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit):
		v.form.SetFieldTouched(v.specs[v.focus].name)
		return true, nil
	case key.Matches(msg, keys.NextField):
		v.move(1)
		return false, nil
	case key.Matches(msg, keys.PrevField):
		v.move(-1)
		return false, nil
	}

	in, cmd := v.inputs[v.focus].Update(msg)
	v.inputs[v.focus] = in
	v.form.UpdateField(v.specs[v.focus].name, in.Value())
	return false, cmd
}

// View renders labels, inputs, visible errors and the general error.
func (v *formView[K]) View(styles Styles, width int) string {
	var b strings.Builder

	b.WriteString(styles.AccentText.Bold(true).Render(v.title))
	b.WriteString("\n\n")

	labelWidth := 0
	for _, spec := range v.specs {
		labelWidth = maxInt(labelWidth, len(spec.label))
	}
	inputWidth := maxInt(width-labelWidth-6, 10)

	for i, spec := range v.specs {
		label := padRight(spec.label, labelWidth)
		if spec.optional {
			b.WriteString(styles.FaintText.Render(label))
		} else {
			b.WriteString(styles.MutedText.Render(label))
		}
		b.WriteString(ternary(i == v.focus, styles.AccentText.Render(" > "), "   "))

		in := v.inputs[i]
		in.Width = inputWidth
		b.WriteString(in.View())
		b.WriteString("\n")

		if msg := v.form.VisibleError(spec.name); msg != "" {
			b.WriteString(strings.Repeat(" ", labelWidth+3))
			b.WriteString(styles.DangerText.Render(msg))
			b.WriteString("\n")
		}
	}

	if msg := v.form.Error(form.General[K]()); msg != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(msg))
		b.WriteString("\n")
	}
	if v.form.Submitting() {
		b.WriteString("\n")
		b.WriteString(styles.InfoText.Render("Submitting..."))
		b.WriteString("\n")
	}
	return b.String()
}
