package gate_test

import (
	"context"
	"testing"

	"github.com/diewo77/go-policy/gate"
)

func TestStaticProfile_HasPermission(t *testing.T) {
	profile := gate.NewStaticProfile(1, "editor",
		gate.NewPermission("product", gate.ActionCreate),
		gate.NewPermission("product", gate.ActionUpdate),
	)

	if !profile.HasPermission(gate.NewPermission("product", gate.ActionCreate)) {
		t.Error("should have product:create permission")
	}
	if profile.HasPermission(gate.NewPermission("product", gate.ActionDelete)) {
		t.Error("should not have product:delete permission")
	}
}

func TestStaticProfile_HasPermission_Wildcard(t *testing.T) {
	profile := gate.NewStaticProfile(1, "admin", gate.PermissionSuperAdmin)

	if !profile.HasPermission(gate.NewPermission("product", gate.ActionCreate)) {
		t.Error("superadmin should have any permission")
	}
	if !profile.HasPermission(gate.NewPermission("invoice", gate.ActionDelete)) {
		t.Error("superadmin should have any permission")
	}
}

func TestStaticProfile_PermissionsDeduplicated(t *testing.T) {
	profile := gate.NewStaticProfile(1, "viewer", "b:view", "a:view", "b:view")
	perms := profile.Permissions()
	if len(perms) != 2 || perms[0] != "a:view" || perms[1] != "b:view" {
		t.Errorf("expected sorted unique permissions, got %v", perms)
	}
}

func TestStaticResolver(t *testing.T) {
	resolver := gate.NewStaticResolver[uint]()
	resolver.Set(1, gate.NewStaticProfile(1, "viewer", gate.NewPermission("product", gate.ActionView)))

	resolved, err := resolver.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved == nil || resolved.Name() != "viewer" {
		t.Fatalf("expected 'viewer', got %v", resolved)
	}

	unknown, err := resolver.Resolve(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unknown != nil {
		t.Error("expected nil for unknown user")
	}
}
