package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/five82/ecoshop/internal/form"
)

// AddressField names a shipping address form field. The names double as the
// JSON keys the checkout endpoint expects.
type AddressField string

const (
	AddressStreet         AddressField = "street"
	AddressCity           AddressField = "city"
	AddressState          AddressField = "state"
	AddressPostalCode     AddressField = "postal_code"
	AddressCountry        AddressField = "country"
	AddressPhone          AddressField = "phone"
	AddressEmail          AddressField = "email"
	AddressAdditionalInfo AddressField = "additional_info"
)

// AddressFields lists address fields in display order.
var AddressFields = []AddressField{
	AddressStreet,
	AddressCity,
	AddressState,
	AddressPostalCode,
	AddressCountry,
	AddressPhone,
	AddressEmail,
	AddressAdditionalInfo,
}

var requiredAddressFields = []AddressField{
	AddressStreet,
	AddressCity,
	AddressState,
	AddressPostalCode,
	AddressCountry,
}

// MaxShippingAddressLength bounds the encoded address.
const MaxShippingAddressLength = 500

func requiredLabel(name AddressField) string {
	return strings.ToUpper(strings.ReplaceAll(string(name), "_", " ")) + " is required"
}

func isRequiredAddressField(name AddressField) bool {
	for _, req := range requiredAddressFields {
		if req == name {
			return true
		}
	}
	return false
}

// AddressFieldRule is the shipping address form's field validator.
func AddressFieldRule(name AddressField, value string, _ map[AddressField]string) string {
	if isRequiredAddressField(name) && blank(value) {
		return requiredLabel(name)
	}
	switch name {
	case AddressPostalCode:
		if !postalCodeRe.MatchString(value) {
			return "Invalid postal code format"
		}
	case AddressPhone:
		if value != "" && !phoneRe.MatchString(value) {
			return "Invalid phone number format"
		}
	case AddressEmail:
		if value != "" && !looseEmailRe.MatchString(value) {
			return "Invalid email format"
		}
	}
	return ""
}

// AddressFormRule validates a whole shipping address, including the encoded
// length limit which is reported as a general error.
func AddressFormRule(values map[AddressField]string) form.Result[AddressField] {
	errs := make(map[AddressField]string, len(AddressFields)+1)
	for _, name := range AddressFields {
		errs[name] = AddressFieldRule(name, values[name], values)
	}
	if encoded, err := json.Marshal(CleanAddress(values)); err == nil && len(encoded) > MaxShippingAddressLength {
		errs[form.General[AddressField]()] = fmt.Sprintf("Shipping address too long (max %d characters)", MaxShippingAddressLength)
	}
	return collect(errs)
}

// CleanAddress trims every value and drops empty optional fields, producing
// the payload sent to the checkout endpoint.
func CleanAddress(values map[AddressField]string) map[string]string {
	out := make(map[string]string, len(AddressFields))
	for _, name := range AddressFields {
		value := strings.TrimSpace(values[name])
		if value == "" && !isRequiredAddressField(name) {
			continue
		}
		out[string(name)] = value
	}
	return out
}
