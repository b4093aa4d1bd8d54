package cart

import "strings"

// InputError reports an argument rejected before any remote call.
type InputError struct {
	Op      string
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// CheckoutError lists every local problem that blocked a checkout. The
// remote service is never called when one is returned.
type CheckoutError struct {
	Problems []string
}

func (e *CheckoutError) Error() string {
	return strings.Join(e.Problems, ", ")
}
