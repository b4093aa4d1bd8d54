package validation

import (
	"github.com/five82/ecoshop/internal/form"
)

// AccountField names a registration (signup) form field.
type AccountField string

const (
	AccountUsername        AccountField = "username"
	AccountEmail           AccountField = "email"
	AccountPassword        AccountField = "password"
	AccountPasswordConfirm AccountField = "password_confirm"
	AccountFirstName       AccountField = "first_name"
	AccountLastName        AccountField = "last_name"
	AccountPhone           AccountField = "phone"
)

// AccountFields lists registration fields in display order.
var AccountFields = []AccountField{
	AccountUsername,
	AccountEmail,
	AccountPassword,
	AccountPasswordConfirm,
	AccountFirstName,
	AccountLastName,
	AccountPhone,
}

// AccountUsernameRule applies the registration username rule, which is
// looser than the login one (dots allowed, 2-30 characters).
func AccountUsernameRule(username string) string {
	switch {
	case blank(username):
		return "Username is required"
	case runeLen(username) < 2 || runeLen(username) > 30:
		return "Username must be 2-30 characters"
	case !accountUsernameRe.MatchString(username):
		return "Username may only contain letters, numbers, dots, and underscores"
	}
	return ""
}

// Email validates an email address.
func Email(email string) string {
	switch {
	case blank(email):
		return "Email is required"
	case runeLen(email) < 5 || runeLen(email) > 100:
		return "Email must be 5-100 characters"
	case !emailRe.MatchString(email):
		return "Invalid email address format"
	}
	return ""
}

// PasswordConfirm checks the confirmation matches.
func PasswordConfirm(password, confirm string) string {
	switch {
	case confirm == "":
		return "Password confirmation is required"
	case password != confirm:
		return "Passwords do not match"
	}
	return ""
}

// PersonName validates a first or last name; label is "First name" or
// "Last name".
func PersonName(label, name string) string {
	switch {
	case blank(name):
		return label + " is required"
	case runeLen(name) < 2 || runeLen(name) > 50:
		return label + " must be 2-50 characters"
	case !nameRe.MatchString(name):
		return label + " contains invalid characters"
	}
	return ""
}

// Phone validates a phone number. Optional phones may be blank.
func Phone(phone string, required bool) string {
	if blank(phone) {
		if required {
			return "Phone number is required"
		}
		return ""
	}
	if !phoneRe.MatchString(phone) {
		return "Invalid phone number format"
	}
	return ""
}

// AccountFieldRule is the registration form's field validator.
func AccountFieldRule(name AccountField, value string, values map[AccountField]string) string {
	switch name {
	case AccountUsername:
		return AccountUsernameRule(value)
	case AccountEmail:
		return Email(value)
	case AccountPassword:
		return Password(value)
	case AccountPasswordConfirm:
		return PasswordConfirm(values[AccountPassword], value)
	case AccountFirstName:
		return PersonName("First name", value)
	case AccountLastName:
		return PersonName("Last name", value)
	case AccountPhone:
		return Phone(value, false)
	}
	return ""
}

// AccountFormRule is the registration form's form validator.
func AccountFormRule(values map[AccountField]string) form.Result[AccountField] {
	errs := make(map[AccountField]string, len(AccountFields))
	for _, name := range AccountFields {
		errs[name] = AccountFieldRule(name, values[name], values)
	}
	return collect(errs)
}
