package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stationlab/weatherapi/database/storetest"
	"github.com/stationlab/weatherapi/models"
)

func TestRoleSet(t *testing.T) {
	set := Roles(models.RoleTeacher, models.RoleSensor)
	if !set.Contains(models.RoleTeacher) || !set.Contains(models.RoleSensor) {
		t.Fatalf("expected teacher and sensor in set")
	}
	// no hierarchy: teacher does not imply student
	if set.Contains(models.RoleStudent) {
		t.Fatalf("did not expect student in set")
	}
	if Roles().Contains(models.RoleTeacher) {
		t.Fatalf("empty set admits nobody")
	}
}

func TestAuthorize(t *testing.T) {
	users := storetest.NewUsers()
	token := "tok-teacher"
	teacher := users.Put(models.User{Email: "t@test.com", Role: models.RoleTeacher, AuthToken: &token})
	g := NewGuard(users)
	ctx := context.Background()

	cases := []struct {
		name    string
		token   string
		allowed RoleSet
		wantErr error
	}{
		{"missing", "", Roles(models.RoleTeacher), ErrMissingCredential},
		{"unknown", "nope", Roles(models.RoleTeacher), ErrInvalidCredential},
		{"forbidden", token, Roles(models.RoleStudent, models.RoleSensor), ErrForbidden},
		{"allowed", token, Roles(models.RoleTeacher), nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			user, err := g.Authorize(ctx, c.token, c.allowed)
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("expected %v, got %v", c.wantErr, err)
			}
			if c.wantErr == nil && user.ID != teacher.ID {
				t.Fatalf("expected the resolved teacher, got %+v", user)
			}
			if c.wantErr != nil && user != nil {
				t.Fatalf("expected no user on rejection")
			}
		})
	}
}

func TestAuthorizeOneLookupPerCall(t *testing.T) {
	users := storetest.NewUsers()
	token := "tok"
	users.Put(models.User{Email: "s@test.com", Role: models.RoleStudent, AuthToken: &token})
	g := NewGuard(users)

	for i := 0; i < 3; i++ {
		if _, err := g.Authorize(context.Background(), token, Roles(models.RoleStudent)); err != nil {
			t.Fatalf("authorize: %v", err)
		}
	}
	if users.Lookups != 3 {
		t.Fatalf("expected one store lookup per call, got %d", users.Lookups)
	}
}

func TestAuthorizeStoreFailureRejects(t *testing.T) {
	users := storetest.NewUsers()
	users.Fail = true
	g := NewGuard(users)

	user, err := g.Authorize(context.Background(), "tok", Roles(models.RoleStudent))
	if user != nil {
		t.Fatalf("store failure must not allow")
	}
	if !errors.Is(err, storetest.ErrInjected) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	for _, kind := range []error{ErrMissingCredential, ErrInvalidCredential, ErrForbidden} {
		if errors.Is(err, kind) {
			t.Fatalf("store failure must not be classified as %v", kind)
		}
	}
}

func TestRegisterLoginAuthorizeExample(t *testing.T) {
	users := storetest.NewUsers()
	a := NewAuthenticator(users)
	g := NewGuard(users)
	ctx := context.Background()

	user, err := a.Register(ctx, "a@test.com", "abc123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != models.RoleStudent {
		t.Fatalf("expected student, got %s", user.Role)
	}
	token, err := a.Authenticate(ctx, "a@test.com", "abc123")
	if err != nil || token == "" {
		t.Fatalf("authenticate: %q, %v", token, err)
	}
	if _, err := g.Authorize(ctx, token, Roles(models.RoleTeacher)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	got, err := g.Authorize(ctx, token, Roles(models.RoleStudent))
	if err != nil {
		t.Fatalf("expected student to proceed, got %v", err)
	}
	if got.Email != "a@test.com" {
		t.Fatalf("unexpected user %s", got.Email)
	}
}
