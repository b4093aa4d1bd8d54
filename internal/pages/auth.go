package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/ecoshop/internal/form"
	"github.com/five82/ecoshop/internal/notify"
	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/validation"
)

// submit runs the shared submit sequence: validate, flag submitting, call
// the action and surface its failure on the form and as one notification.
func submit[K ~string](f *form.Form[K, string], sink notify.Sink, action func() error) error {
	if !f.ValidateForm() {
		return ErrInvalidForm
	}
	f.SetSubmitting(true)
	defer f.SetSubmitting(false)

	if err := action(); err != nil {
		msg := Message(err)
		f.SetGeneralError(msg)
		sink.Error(msg)
		return notified(err)
	}
	return nil
}

func emptyValues[K ~string](fields []K) map[K]string {
	values := make(map[K]string, len(fields))
	for _, name := range fields {
		values[name] = ""
	}
	return values
}

// Login is the sign-in page.
type Login struct {
	Form *form.Form[validation.LoginField, string]
	deps Deps
}

// NewLogin builds the sign-in page with an empty form.
func NewLogin(deps Deps) *Login {
	return &Login{
		Form: form.New(
			emptyValues([]validation.LoginField{validation.LoginUsername, validation.LoginPassword}),
			form.Config[validation.LoginField, string]{
				ValidateField: validation.LoginFieldRule,
				ValidateForm:  validation.LoginFormRule,
			},
		),
		deps: deps.withDefaults(),
	}
}

// Submit signs in and folds the guest cart into the user's cart.
func (p *Login) Submit(ctx context.Context) (session.User, error) {
	var user session.User
	err := submit(p.Form, p.deps.Notify, func() error {
		values := p.Form.Values()
		u, err := p.deps.Session.Login(ctx, strings.TrimSpace(values[validation.LoginUsername]), values[validation.LoginPassword])
		user = u
		return err
	})
	if err != nil {
		return session.User{}, err
	}

	mergeAfterSignIn(ctx, p.deps)
	p.deps.Notify.Success(fmt.Sprintf("Welcome back, %s!", user.DisplayName()))
	p.Form.ResetForm()
	return user, nil
}

// Register is the account registration page.
type Register struct {
	Form *form.Form[validation.AccountField, string]
	deps Deps
}

// NewRegister builds the registration page with an empty form.
func NewRegister(deps Deps) *Register {
	return &Register{
		Form: form.New(
			emptyValues(validation.AccountFields),
			form.Config[validation.AccountField, string]{
				ValidateField: validation.AccountFieldRule,
				ValidateForm:  validation.AccountFormRule,
			},
		),
		deps: deps.withDefaults(),
	}
}

// Submit creates the account. When the storefront answers with a token the
// new user is signed in right away; signedIn reports which case happened.
func (p *Register) Submit(ctx context.Context) (signedIn bool, err error) {
	if p.deps.Registrar == nil {
		return false, errors.New("registration not configured")
	}

	var res session.LoginResult
	err = submit(p.Form, p.deps.Notify, func() error {
		values := p.Form.Values()
		for name, value := range values {
			if name != validation.AccountPassword && name != validation.AccountPasswordConfirm {
				values[name] = strings.TrimSpace(value)
			}
		}
		var err error
		res, err = p.deps.Registrar.Register(ctx, values)
		if err != nil || res.Token == "" {
			return err
		}
		res.User, err = p.deps.Session.Adopt(ctx, res)
		return err
	})
	if err != nil {
		return false, err
	}

	p.Form.ResetForm()
	if res.Token == "" {
		p.deps.Notify.Success("Account created. Please log in.")
		return false, nil
	}
	mergeAfterSignIn(ctx, p.deps)
	p.deps.Notify.Success(fmt.Sprintf("Account created. Welcome, %s!", res.User.DisplayName()))
	return true, nil
}

// ChangePassword is the change-password page.
type ChangePassword struct {
	Form *form.Form[validation.PasswordField, string]
	deps Deps
}

// NewChangePassword builds the change-password page.
func NewChangePassword(deps Deps) *ChangePassword {
	return &ChangePassword{
		Form: form.New(
			emptyValues([]validation.PasswordField{validation.PasswordCurrent, validation.PasswordNew}),
			form.Config[validation.PasswordField, string]{
				ValidateField: validation.PasswordFieldRule,
				ValidateForm:  validation.PasswordFormRule,
			},
		),
		deps: deps.withDefaults(),
	}
}

// Submit changes the signed-in user's password.
func (p *ChangePassword) Submit(ctx context.Context) error {
	err := submit(p.Form, p.deps.Notify, func() error {
		if !p.deps.Session.IsAuthenticated() {
			return errNotSignedIn
		}
		values := p.Form.Values()
		return p.deps.Session.ChangePassword(ctx, values[validation.PasswordCurrent], values[validation.PasswordNew])
	})
	if err != nil {
		return err
	}
	p.deps.Notify.Success("Password updated successfully")
	p.Form.ResetForm()
	return nil
}

var errNotSignedIn = errors.New("not signed in")

// Logout signs out locally, whatever the storefront says, and drops the
// user's cart state.
func Logout(ctx context.Context, deps Deps) {
	deps = deps.withDefaults()
	deps.Session.Logout(ctx)
	if deps.Cart != nil {
		deps.Cart.Reset(ctx)
	}
	deps.Notify.Info("You have been logged out")
}

func mergeAfterSignIn(ctx context.Context, deps Deps) {
	if deps.Cart == nil {
		return
	}
	if err := deps.Cart.MergeCarts(ctx); err != nil {
		deps.Logger.Warn("merge guest cart", zap.Error(err))
	}
}
