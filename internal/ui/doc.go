// Package ui is the ecoshop terminal storefront, built on Bubble Tea.
//
// Model owns every view: the product list and detail, the cart, checkout and
// the account forms. All network work runs in tea.Cmd goroutines that call
// the page handlers in internal/pages; those handlers emit the notifications,
// and the UI only renders what notify.Center holds.
//
// Forms are rendered by formView, which binds one textinput per field to a
// form.Form: each key press updates the field value, and leaving a field marks
// it touched so its error becomes visible.
//
// Quantity keys in the cart are folded per line through a rate limiter so a
// burst of presses becomes one update. A forced logout, signalled by the
// LoggedOut channel when the storefront rejects the token, switches to the
// login form.
package ui
