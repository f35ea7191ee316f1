package gate_test

import (
	"testing"

	"github.com/diewo77/go-marketplace/gate"
)

func TestPermission_NewPermission(t *testing.T) {
	perm := gate.NewPermission("product", gate.ActionCreate)
	if perm != "product:create" {
		t.Errorf("expected 'product:create', got '%s'", perm)
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := gate.Permission("order:view").Parse()
	if res != "order" {
		t.Errorf("expected resource 'order', got '%s'", res)
	}
	if act != gate.ActionView {
		t.Errorf("expected action 'view', got '%s'", act)
	}
}

func TestPermission_Parse_Invalid(t *testing.T) {
	res, act := gate.Permission("invalid").Parse()
	if res != "" || act != "" {
		t.Errorf("expected empty strings, got '%s' and '%s'", res, act)
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		pattern   gate.Permission
		requested gate.Permission
		want      bool
	}{
		{"product:create", "product:create", true},
		{"product:create", "product:delete", false},
		{"product:create", "order:create", false},
		{gate.PermissionAll, "order:delete", true},
		{"product:*", "product:update", true},
		{"product:*", "store:update", false},
		{"*:delete", "order:delete", true},
		{"*:delete", "order:view", false},
		{"invalid", "order:view", false},
	}
	for _, tt := range tests {
		if got := tt.pattern.Matches(tt.requested); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.pattern, tt.requested, got, tt.want)
		}
	}
}
