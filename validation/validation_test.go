package validation

import "testing"

func TestValidators(t *testing.T) {
	v := make(Violations)
	Required("name", "  ", v)
	PositiveFloat("unit_price", 0, v)
	RangeFloat("vat_rate", 1.5, 0, 1, v)
	MaxLen("code", "abcdef", 5, v)
	Email("email", "nope", v)
	Email("backup_email", "", v)

	want := map[string]string{
		"name":       "required",
		"unit_price": "must_be_positive",
		"vat_rate":   "out_of_range",
		"code":       "too_long",
		"email":      "invalid_email",
	}
	if len(v) != len(want) {
		t.Fatalf("got %v, want %v", v, want)
	}
	for field, msg := range want {
		if v[field] != msg {
			t.Errorf("%s = %q, want %q", field, v[field], msg)
		}
	}
}

func TestViolations_Empty(t *testing.T) {
	v := make(Violations)
	Required("name", "ok", v)
	Email("email", "a@b.c", v)
	if !v.Empty() {
		t.Errorf("expected no violations, got %v", v)
	}
}
