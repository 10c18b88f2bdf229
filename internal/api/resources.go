package api

import (
	"github.com/diewo77/go-policy/gate"
	"github.com/diewo77/go-policy/validation"
)

// ProductConfig serves models.Product.
var ProductConfig = ResourceConfig{
	Fillable:   []string{"code", "name", "description", "unit_price", "vat_rate", "is_active"},
	Searchable: []string{"name", "code"},
	Order:      "name",
	Rules:      productRules,
}

// ClientConfig serves models.Client.
var ClientConfig = ResourceConfig{
	Fillable:   []string{"name", "email", "company", "address", "city", "postal_code", "country"},
	Searchable: []string{"name", "email", "company"},
	Order:      "name",
	Rules:      clientRules,
}

func productRules(data gate.Payload, partial bool) validation.Violations {
	v := make(validation.Violations)
	str := fields(data, partial, v)
	str("code", true, 50)
	str("name", true, 255)
	str("description", false, 0)

	if price, present := data["unit_price"]; present || !partial {
		f, ok := price.(float64)
		switch {
		case !ok:
			v["unit_price"] = "must_be_number"
		default:
			validation.PositiveFloat("unit_price", f, v)
		}
	}
	if rate, present := data["vat_rate"]; present {
		f, ok := rate.(float64)
		switch {
		case !ok:
			v["vat_rate"] = "must_be_number"
		default:
			validation.RangeFloat("vat_rate", f, 0, 1, v)
		}
	}
	if active, present := data["is_active"]; present {
		if _, ok := active.(bool); !ok {
			v["is_active"] = "must_be_boolean"
		}
	}
	return v
}

func clientRules(data gate.Payload, partial bool) validation.Violations {
	v := make(validation.Violations)
	str := fields(data, partial, v)
	str("name", true, 255)
	if email := str("email", false, 255); email != "" {
		validation.Email("email", email, v)
	}
	str("company", false, 255)
	str("address", false, 500)
	str("city", false, 100)
	str("postal_code", false, 20)
	str("country", false, 100)
	return v
}

// fields returns a checker for string fields. Absent optional fields and,
// when partial, absent required fields are skipped. max 0 means unbounded.
func fields(data gate.Payload, partial bool, v validation.Violations) func(field string, required bool, max int) string {
	return func(field string, required bool, max int) string {
		raw, present := data[field]
		if !present {
			if required && !partial {
				v[field] = "required"
			}
			return ""
		}
		s, ok := raw.(string)
		if !ok {
			v[field] = "must_be_string"
			return ""
		}
		if required {
			validation.Required(field, s, v)
		}
		if max > 0 {
			validation.MaxLen(field, s, max, v)
		}
		return s
	}
}
