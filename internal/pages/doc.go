// Package pages holds the page-level handlers: each page owns its
// form.Form wired to the validation rule set for that page, and its Submit
// (or action) method calls the session, cart synchronizer or storefront
// services.
//
// Handlers follow one propagation rule. Validation failures are data: the
// form marks every field touched and Submit returns ErrInvalidForm without
// notifying anyone. Remote failures are recorded once on the form's general
// error (or in cart.State), emitted as exactly one notification, and
// returned so the caller can decide what to render next.
//
// Message maps errors from every layer to the text the user sees.
package pages
