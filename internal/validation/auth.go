package validation

import (
	"fmt"

	"github.com/five82/ecoshop/internal/form"
)

// LoginField names a login form field.
type LoginField string

const (
	LoginUsername LoginField = "username"
	LoginPassword LoginField = "password"
)

// PasswordField names a change-password form field.
type PasswordField string

const (
	PasswordCurrent PasswordField = "currentPassword"
	PasswordNew     PasswordField = "newPassword"
)

// Username applies the login username rule.
func Username(username string) string {
	switch {
	case username == "":
		return "Username is required"
	case runeLen(username) < 3:
		return "Username must be at least 3 characters"
	case runeLen(username) > 20:
		return "Username cannot exceed 20 characters"
	case !loginUsernameRe.MatchString(username):
		return "Username can only contain letters, numbers and underscore"
	}
	return ""
}

// Password applies the shared password length rule.
func Password(password string) string {
	switch {
	case password == "":
		return "Password is required"
	case runeLen(password) < passwordMinLength:
		return fmt.Sprintf("Password must be at least %d characters", passwordMinLength)
	case runeLen(password) > passwordMaxLength:
		return fmt.Sprintf("Password cannot exceed %d characters", passwordMaxLength)
	}
	return ""
}

// CurrentPassword only requires a value.
func CurrentPassword(password string) string {
	if password == "" {
		return "Current password is required"
	}
	return ""
}

// NewPassword applies the password rule and rejects reuse of current.
func NewPassword(password, current string) string {
	switch {
	case password == "":
		return "New password is required"
	case runeLen(password) < passwordMinLength:
		return fmt.Sprintf("New password must be at least %d characters", passwordMinLength)
	case runeLen(password) > passwordMaxLength:
		return fmt.Sprintf("New password cannot exceed %d characters", passwordMaxLength)
	case password == current:
		return "New password must be different from current password"
	}
	return ""
}

// LoginFieldRule is the login form's field validator.
func LoginFieldRule(name LoginField, value string, _ map[LoginField]string) string {
	switch name {
	case LoginUsername:
		return Username(value)
	case LoginPassword:
		return Password(value)
	}
	return ""
}

// LoginFormRule is the login form's form validator.
func LoginFormRule(values map[LoginField]string) form.Result[LoginField] {
	return collect(map[LoginField]string{
		LoginUsername: Username(values[LoginUsername]),
		LoginPassword: Password(values[LoginPassword]),
	})
}

// PasswordFieldRule is the change-password form's field validator.
func PasswordFieldRule(name PasswordField, value string, values map[PasswordField]string) string {
	switch name {
	case PasswordCurrent:
		return CurrentPassword(value)
	case PasswordNew:
		return NewPassword(value, values[PasswordCurrent])
	}
	return ""
}

// PasswordFormRule is the change-password form's form validator.
func PasswordFormRule(values map[PasswordField]string) form.Result[PasswordField] {
	return collect(map[PasswordField]string{
		PasswordCurrent: CurrentPassword(values[PasswordCurrent]),
		PasswordNew:     NewPassword(values[PasswordNew], values[PasswordCurrent]),
	})
}
