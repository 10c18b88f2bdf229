package gate_test

import (
	"testing"

	"github.com/diewo77/go-policy/gate"
)

func TestPermission_NewPermission(t *testing.T) {
	perm := gate.NewPermission("product", gate.ActionCreate)
	if perm != "product:create" {
		t.Errorf("expected 'product:create', got '%s'", perm)
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := gate.Permission("invoice:view").Parse()
	if res != "invoice" || act != gate.ActionView {
		t.Errorf("expected invoice/view, got '%s'/'%s'", res, act)
	}

	res, act = gate.Permission("invalid").Parse()
	if res != "" || act != "" {
		t.Errorf("expected empty strings, got '%s' and '%s'", res, act)
	}
}

func TestParsePermission(t *testing.T) {
	perm, err := gate.ParsePermission(" client:* ")
	if err != nil || perm != "client:*" {
		t.Errorf("expected client:*, got %q (%v)", perm, err)
	}
	for _, bad := range []string{"", "client", ":view", "client:"} {
		if _, err := gate.ParsePermission(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		granted   gate.Permission
		requested gate.Permission
		want      bool
	}{
		{"product:create", "product:create", true},
		{"product:create", "product:delete", false},
		{"product:create", "invoice:create", false},
		{gate.PermissionSuperAdmin, "product:create", true},
		{gate.PermissionSuperAdmin, "invoice:delete", true},
		{"product:*", "product:create", true},
		{"product:*", "invoice:create", false},
		{"*:view", "invoice:view", true},
		{"*:view", "invoice:update", false},
		{"product:*", "garbage", false},
	}
	for _, tt := range tests {
		if got := tt.granted.Matches(tt.requested); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.granted, tt.requested, got, tt.want)
		}
	}
}
