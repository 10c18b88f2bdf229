// Package validation checks request payload fields and collects violations
// keyed by field name.
package validation

import (
	"fmt"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// MaxLen flags strings longer than max runes.
func MaxLen(field, value string, max int, v Violations) {
	if len([]rune(value)) > max {
		v[field] = "too_long"
	}
}

// Email flags values that are not a plausible address. Empty values pass;
// combine with Required when the field is mandatory.
func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	at := strings.LastIndex(value, "@")
	if at < 1 || at == len(value)-1 || strings.ContainsAny(value, " \t") {
		v[field] = "invalid_email"
	}
}
