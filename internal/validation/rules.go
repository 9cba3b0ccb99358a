// Package validation provides custom validation rules for vault input.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/vaultcli/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// URLHint validates the opt-in plaintext search hint: a bare host name,
// never a full URL. Paths and schemes carry more than the user opted to
// expose in the plaintext index.
var URLHint = validation.NewStringRuleWithError(
	func(s string) bool {
		return !strings.Contains(s, "/") && !strings.Contains(s, "://") && !strings.ContainsAny(s, " \t")
	},
	validation.NewError("validation_url_hint", "must be a bare host name without scheme or path"),
)
