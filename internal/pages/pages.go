package pages

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/notify"
	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/storefront"
	"github.com/five82/ecoshop/internal/validation"
)

// ErrInvalidForm is returned by Submit when local validation fails. The
// form's errors are already visible; no notification is sent.
var ErrInvalidForm = errors.New("form has errors")

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, values map[validation.AccountField]string) (session.LoginResult, error)
}

// Catalog reads products.
type Catalog interface {
	List(ctx context.Context, filter storefront.ProductFilter) (storefront.ProductPage, error)
	Get(ctx context.Context, slug string) (storefront.Product, error)
}

// Deps are the collaborators shared by every page.
type Deps struct {
	Session   *session.Session
	Cart      *cart.Synchronizer
	Registrar Registrar
	Catalog   Catalog
	Notify    notify.Sink
	Logger    *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Notify == nil {
		d.Notify = notify.Discard{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// NotifiedError wraps an error the page has already shown through its
// notification sink. Callers should not report it again.
type NotifiedError struct {
	Err error
}

func (e *NotifiedError) Error() string { return e.Err.Error() }

func (e *NotifiedError) Unwrap() error { return e.Err }

// IsNotified reports whether err was already shown to the user.
func IsNotified(err error) bool {
	var n *NotifiedError
	return errors.As(err, &n)
}

func notified(err error) error {
	if err == nil || IsNotified(err) {
		return err
	}
	return &NotifiedError{Err: err}
}

// Message turns an error from any layer into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		apiErr      *storefront.APIError
		inputErr    *cart.InputError
		checkoutErr *cart.CheckoutError
		urlErr      *url.Error
		opErr       *net.OpError
	)
	switch {
	case errors.Is(err, storefront.ErrUnauthorized):
		return storefront.ErrUnauthorized.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out. Please try again."
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.As(err, &inputErr):
		return inputErr.Message
	case errors.As(err, &checkoutErr):
		return checkoutErr.Error()
	case errors.As(err, &apiErr):
		if len(apiErr.Fields) > 0 && apiErr.Status == 400 {
			return fieldSummary(apiErr.Fields)
		}
		return apiErr.Message
	case errors.Is(err, session.ErrInvalidCredentials):
		return err.Error()
	case errors.Is(err, errNotSignedIn):
		return "Please log in first"
	case errors.As(err, &urlErr) && urlErr.Timeout():
		return "Request timed out. Please try again."
	case errors.As(err, &urlErr), errors.As(err, &opErr):
		return "Cannot reach the storefront. Check your connection."
	}
	return fmt.Sprintf("Something went wrong: %v", err)
}

func fieldSummary(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		msgs := fields[name]
		if len(msgs) == 0 {
			continue
		}
		if name == "non_field_errors" {
			parts = append(parts, strings.Join(msgs, " "))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ReplaceAll(name, "_", " "), strings.Join(msgs, " ")))
	}
	return strings.Join(parts, "; ")
}
