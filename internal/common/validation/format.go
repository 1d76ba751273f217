// internal/common/validation/format.go
package validation

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Format tags understood by CheckFormats.
const (
	FormatEmail  = "email"
	FormatURL    = "url"
	FormatDomain = "fqdn"
	FormatPhone  = "phone"
)

var (
	validate     = validator.New()
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-.()]+$`)
)

func init() {
	_ = validate.RegisterValidation(FormatPhone, phoneValidation)
}

// phones are loose national formats: 7 to 15 digits with common separators.
func phoneValidation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok || !phonePattern.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

func ValidateEmail(email string) bool {
	return validate.Var(email, "required,"+FormatEmail) == nil
}

func ValidatePhone(phone string) bool {
	return validate.Var(phone, "required,"+FormatPhone) == nil
}

func ValidateURL(url string) bool {
	return validate.Var(url, "required,"+FormatURL) == nil
}

func ValidateDomain(domain string) bool {
	return validate.Var(domain, "required,"+FormatDomain) == nil
}

// CheckFormats validates each filled value against its format tag. Blank or
// missing values are skipped; presence is a completion concern.
func CheckFormats(values map[string]string, rules map[string]string) []ValidationError {
	fields := make([]string, 0, len(rules))
	for field := range rules {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var errs []ValidationError
	for _, field := range fields {
		value := strings.TrimSpace(values[field])
		if value == "" {
			continue
		}
		tag := rules[field]
		if err := validate.Var(value, tag); err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "must be a valid " + tag,
				Code:    "INVALID_FORMAT",
			})
		}
	}
	return errs
}
