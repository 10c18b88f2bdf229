package gate_test

import (
	"testing"

	"github.com/diewo77/go-policy/gate"
)

type InvoiceItem struct{}

type namedResource struct{}

func (namedResource) ResourceType() string { return "custom" }

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name     string
		resource any
		want     string
	}{
		{"nil", nil, ""},
		{"descriptor", gate.Type("product"), "product"},
		{"pointer", &document{}, "document"},
		{"value", document{}, "document"},
		{"typed nil", (*document)(nil), "document"},
		{"camel case", &InvoiceItem{}, "invoice_item"},
		{"self named", namedResource{}, "custom"},
		{"self named typed nil", (*namedResource)(nil), "custom"},
		{"slice of values", []document{{ID: 1}}, "document"},
		{"slice of pointers", []*document{{ID: 1}}, "document"},
		{"mixed slice", []any{&note{}, &document{}}, "note"},
		{"empty slice", []document{}, ""},
		{"array of values", [1]document{{ID: 1}}, "document"},
		{"string", "product", "product"},
		{"empty string", "", ""},
		{"anonymous struct", struct{}{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.TypeOf(tt.resource); got != tt.want {
				t.Errorf("TypeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsType(t *testing.T) {
	if !gate.IsType(nil) || !gate.IsType(gate.Type("x")) || !gate.IsType("x") || !gate.IsType((*document)(nil)) {
		t.Error("expected descriptors to be reported as types")
	}
	if gate.IsType(&document{}) {
		t.Error("expected an instance not to be a type")
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg := gate.NewRegistry[uint]()
	policy := gate.Abilities[uint]{gate.ActionView: gate.Allow[uint]()}
	reg.RegisterFor(&document{}, policy)

	if _, ok := reg.Resolve(&note{}); ok {
		t.Error("expected no policy for note")
	}
	if _, ok := reg.Resolve(nil); ok {
		t.Error("expected no policy for nil")
	}
	for _, r := range []any{&document{}, gate.Type("document"), []*document{{}}} {
		if _, ok := reg.Resolve(r); !ok {
			t.Errorf("expected policy for %#v", r)
		}
	}

	reg.Register("note", policy)
	if got := reg.Types(); len(got) != 2 || got[0] != "document" || got[1] != "note" {
		t.Errorf("unexpected types %v", got)
	}

	reg.Register("note", nil)
	if _, ok := reg.Resolve(&note{}); ok {
		t.Error("expected nil registration to remove the policy")
	}
}
