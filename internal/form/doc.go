// Package form provides the generic form state container shared by every
// ecoshop form (login, account registration, change password, shipping
// address).
//
// # Overview
//
// A Form holds four pieces of state:
//
//   - Values: the current value of every field
//   - Errors: the last validation message per field ("" or absent = valid)
//   - Touched: whether the user has left (blurred) the field at least once
//   - Submitting: whether a submit round trip is in flight
//
// Field keys are a caller-defined string type, so each form gets its own
// key set and the compiler rejects keys from another form:
//
//	type LoginField string
//
//	const (
//		LoginUsername LoginField = "username"
//		LoginPassword LoginField = "password"
//	)
//
//	f := form.New(map[LoginField]string{LoginUsername: "", LoginPassword: ""},
//		form.Config[LoginField, string]{
//			ValidateField: validation.LoginFieldRule,
//			ValidateForm:  validation.LoginFormRule,
//		})
//
// # Validation Model
//
// Errors are computed eagerly but only shown once a field is touched:
//
//   - UpdateField re-validates a field only if it is already touched
//   - SetFieldTouched always re-validates
//   - ValidateForm replaces every error and touches every field, so a failed
//     submit shows all problems at once
//
// VisibleError applies the touched gate for renderers. The reserved
// GeneralKey ("_general") carries form-wide errors and is never gated.
//
// # Concurrency
//
// Every operation takes the form's mutex and works on the latest state, so
// two fields updated back to back never lose each other's value. Validators
// run under that mutex and receive a copy of the values; they must not call
// back into the form.
//
// # Failure Semantics
//
// Validators are plain functions supplied by the caller. A panicking
// validator is a programming error and is not recovered.
package form
