// Package validation holds the field and form rule sets used by ecoshop's
// forms and by the cart's input checks. Every rule returns "" when the value
// is valid and a human-readable message otherwise.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/five82/ecoshop/internal/form"
)

var (
	loginUsernameRe   = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	accountUsernameRe = regexp.MustCompile(`^[a-zA-Z0-9._]{2,30}$`)
	emailRe           = regexp.MustCompile(`^[\w.-]{1,64}@[\w.-]+\.[a-zA-Z]{2,63}$`)
	nameRe            = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚáéíóúÑñ'\s]{2,50}$`)
	phoneRe           = regexp.MustCompile(`^[\d\s+\-()]{10,20}$`)
	postalCodeRe      = regexp.MustCompile(`^[A-Z0-9\s-]{3,10}$`)
	looseEmailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const (
	passwordMinLength = 6
	passwordMaxLength = 255
)

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// collect drops empty messages and reports validity.
func collect[K ~string](errs map[K]string) form.Result[K] {
	out := make(map[K]string, len(errs))
	for k, msg := range errs {
		if msg != "" {
			out[k] = msg
		}
	}
	return form.Result[K]{Errors: out, Valid: len(out) == 0}
}
