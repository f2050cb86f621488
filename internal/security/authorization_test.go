package security

import (
	"errors"
	"testing"
)

func principal(role Role) Principal {
	return Principal{UserID: "u1", Authenticated: true, Role: role, RoleLoaded: true}
}

func TestRankOrder(t *testing.T) {
	if !(Rank(RoleUser) < Rank(RoleAdmin) && Rank(RoleAdmin) < Rank(RoleSuperAdmin)) {
		t.Fatalf("roles are not strictly increasing")
	}
	if Rank(RoleUser) != 1 || Rank(RoleSuperAdmin) != 3 {
		t.Fatalf("unexpected weights: user=%d super_admin=%d", Rank(RoleUser), Rank(RoleSuperAdmin))
	}
	if Rank("owner") != 0 {
		t.Fatalf("unknown role must rank 0")
	}
}

func TestParseRoleIsCaseSensitive(t *testing.T) {
	if _, ok := ParseRole("admin"); !ok {
		t.Fatalf("expected admin to parse")
	}
	if _, ok := ParseRole("Admin"); ok {
		t.Fatalf("expected Admin to be rejected")
	}
}

func TestHasAccessIsMonotonic(t *testing.T) {
	for _, held := range Roles() {
		for _, required := range Roles() {
			want := Rank(held) >= Rank(required)
			if got := HasAccess(principal(held), required); got != want {
				t.Errorf("HasAccess(%s, %s) = %v, want %v", held, required, got, want)
			}
		}
	}
}

func TestHasAccessAnyOf(t *testing.T) {
	if !HasAccess(principal(RoleAdmin), RoleSuperAdmin, RoleAdmin) {
		t.Fatalf("admin should satisfy [super_admin, admin]")
	}
	if HasAccess(principal(RoleUser), RoleSuperAdmin, RoleAdmin) {
		t.Fatalf("user should not satisfy [super_admin, admin]")
	}
}

func TestHasAccessFailsClosed(t *testing.T) {
	cases := map[string]struct {
		p        Principal
		required []Role
	}{
		"empty requirement":  {principal(RoleSuperAdmin), nil},
		"unauthenticated":    {Principal{Role: RoleSuperAdmin, RoleLoaded: true}, []Role{RoleUser}},
		"role not loaded":    {Principal{Authenticated: true}, []Role{RoleUser}},
		"unknown held role":  {principal("owner"), []Role{RoleUser}},
		"unknown required":   {principal(RoleUser), []Role{"guest"}},
		"case mismatch held": {principal("Admin"), []Role{RoleUser}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if HasAccess(tc.p, tc.required...) {
				t.Fatalf("expected access to be denied")
			}
		})
	}
}

func TestValidateAccess(t *testing.T) {
	as := NewAuthorizationService(nil)
	if err := as.ValidateAccess(principal(RoleAdmin), RoleAdmin); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
	if err := as.ValidateAccess(principal(RoleUser), RoleAdmin); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}
