package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/ecoshop/internal/form"
)

func TestUsername(t *testing.T) {
	cases := map[string]string{
		"":                      "Username is required",
		"ab":                    "Username must be at least 3 characters",
		"abc":                   "",
		"user_01":               "",
		strings.Repeat("a", 21): "Username cannot exceed 20 characters",
		"bad name":              "Username can only contain letters, numbers and underscore",
	}
	for in, want := range cases {
		assert.Equal(t, want, Username(in), "username %q", in)
	}
}

func TestNewPasswordRejectsReuse(t *testing.T) {
	assert.Equal(t, "New password must be different from current password", NewPassword("secret1", "secret1"))
	assert.Equal(t, "New password must be at least 6 characters", NewPassword("abc", "secret1"))
	assert.Empty(t, NewPassword("secret2", "secret1"))
}

func TestLoginFormRule(t *testing.T) {
	res := LoginFormRule(map[LoginField]string{LoginUsername: "ab", LoginPassword: ""})
	require.False(t, res.Valid)
	assert.Equal(t, "Username must be at least 3 characters", res.Errors[LoginUsername])
	assert.Equal(t, "Password is required", res.Errors[LoginPassword])

	res = LoginFormRule(map[LoginField]string{LoginUsername: "alice", LoginPassword: "secret1"})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestPasswordFieldRuleUsesCurrentValue(t *testing.T) {
	values := map[PasswordField]string{PasswordCurrent: "oldpass", PasswordNew: "oldpass"}
	assert.Equal(t, "New password must be different from current password",
		PasswordFieldRule(PasswordNew, values[PasswordNew], values))
}

func TestAccountFieldRule(t *testing.T) {
	values := map[AccountField]string{
		AccountUsername:        "a",
		AccountEmail:           "not-an-email",
		AccountPassword:        "secret1",
		AccountPasswordConfirm: "secret2",
		AccountFirstName:       "J",
		AccountLastName:        "D0e",
		AccountPhone:           "123",
	}
	want := map[AccountField]string{
		AccountUsername:        "Username must be 2-30 characters",
		AccountEmail:           "Invalid email address format",
		AccountPassword:        "",
		AccountPasswordConfirm: "Passwords do not match",
		AccountFirstName:       "First name must be 2-50 characters",
		AccountLastName:        "Last name contains invalid characters",
		AccountPhone:           "Invalid phone number format",
	}
	for name, msg := range want {
		assert.Equal(t, msg, AccountFieldRule(name, values[name], values), "field %s", name)
	}
}

func TestAccountFormRuleValid(t *testing.T) {
	res := AccountFormRule(map[AccountField]string{
		AccountUsername:        "maria.lopez",
		AccountEmail:           "maria@example.com",
		AccountPassword:        "secret1",
		AccountPasswordConfirm: "secret1",
		AccountFirstName:       "María",
		AccountLastName:        "López",
	})
	assert.True(t, res.Valid, "errors: %v", res.Errors)
}

func TestAccountUsernameCharacters(t *testing.T) {
	assert.Equal(t, "Username may only contain letters, numbers, dots, and underscores", AccountUsernameRule("ma-ria"))
	assert.Empty(t, AccountUsernameRule("ma.ria_2"))
}

func validAddress() map[AddressField]string {
	return map[AddressField]string{
		AddressStreet:     "Av. Reforma 100",
		AddressCity:       "CDMX",
		AddressState:      "CDMX",
		AddressPostalCode: "06600",
		AddressCountry:    "MX",
	}
}

func TestAddressFormRuleRequired(t *testing.T) {
	res := AddressFormRule(map[AddressField]string{})
	require.False(t, res.Valid)
	assert.Equal(t, "STREET is required", res.Errors[AddressStreet])
	assert.Equal(t, "POSTAL CODE is required", res.Errors[AddressPostalCode])
	assert.NotContains(t, res.Errors, AddressPhone)
	assert.NotContains(t, res.Errors, AddressAdditionalInfo)
}

func TestAddressFormRuleFormats(t *testing.T) {
	values := validAddress()
	values[AddressPostalCode] = "ab"
	values[AddressPhone] = "12"
	values[AddressEmail] = "nope"

	res := AddressFormRule(values)
	assert.Equal(t, "Invalid postal code format", res.Errors[AddressPostalCode])
	assert.Equal(t, "Invalid phone number format", res.Errors[AddressPhone])
	assert.Equal(t, "Invalid email format", res.Errors[AddressEmail])
}

func TestAddressFormRuleTooLong(t *testing.T) {
	values := validAddress()
	values[AddressAdditionalInfo] = strings.Repeat("x", 600)

	res := AddressFormRule(values)
	require.False(t, res.Valid)
	assert.Equal(t, "Shipping address too long (max 500 characters)", res.Errors[form.General[AddressField]()])
}

func TestCleanAddressDropsEmptyOptional(t *testing.T) {
	values := validAddress()
	values[AddressStreet] = "  Av. Reforma 100 "
	values[AddressPhone] = " "

	out := CleanAddress(values)
	assert.Equal(t, "Av. Reforma 100", out["street"])
	assert.NotContains(t, out, "phone")
	assert.Len(t, out, 5)
}

func TestCartInputs(t *testing.T) {
	assert.Equal(t, "Product ID must be greater than 0", ProductID(0))
	assert.Equal(t, "Cart item ID must be greater than 0", CartItemID(-1))
	assert.Equal(t, "Quantity must be at least 1", Quantity(0))
	assert.Equal(t, "Cannot add more than 99 of the same product", Quantity(100))
	assert.Empty(t, Quantity(99))
}

func TestApplyDelta(t *testing.T) {
	next, msg := ApplyDelta(3, 2)
	assert.Equal(t, 5, next)
	assert.Empty(t, msg)

	next, msg = ApplyDelta(1, -1)
	assert.Equal(t, 1, next)
	assert.Equal(t, "Quantity must be at least 1", msg)

	_, msg = ApplyDelta(1, 0)
	assert.Equal(t, "Quantity delta cannot be 0", msg)

	_, msg = ApplyDelta(1, 100)
	assert.Equal(t, "Quantity change cannot exceed 99", msg)
}

func TestLoginRulesDriveForm(t *testing.T) {
	f := form.New(
		map[LoginField]string{LoginUsername: "", LoginPassword: ""},
		form.Config[LoginField, string]{ValidateField: LoginFieldRule, ValidateForm: LoginFormRule},
	)
	f.UpdateField(LoginUsername, "ab")
	f.SetFieldTouched(LoginUsername)
	assert.Equal(t, "Username must be at least 3 characters", f.VisibleError(LoginUsername))

	require.False(t, f.ValidateForm())
	assert.Equal(t, "Password is required", f.VisibleError(LoginPassword))
}
