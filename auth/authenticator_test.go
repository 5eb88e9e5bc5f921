package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stationlab/weatherapi/database/storetest"
	"github.com/stationlab/weatherapi/models"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *storetest.Users) {
	t.Helper()
	users := storetest.NewUsers()
	return NewAuthenticator(users), users
}

func mustRegister(t *testing.T, a *Authenticator, email, password string) *models.User {
	t.Helper()
	user, err := a.Register(context.Background(), email, password)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func TestRegisterForcesStudentRole(t *testing.T) {
	a, users := newTestAuthenticator(t)
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	user := mustRegister(t, a, "a@test.com", "abc123")
	if user.Role != models.RoleStudent {
		t.Fatalf("expected role student, got %s", user.Role)
	}
	if user.AuthToken != nil {
		t.Fatalf("expected no token on a fresh registration")
	}
	if user.PasswordHash == "" || user.PasswordHash == "abc123" {
		t.Fatalf("expected password to be hashed")
	}
	if !user.CreatedAt.Equal(fixed) {
		t.Fatalf("expected createdAt %s, got %s", fixed, user.CreatedAt)
	}
	if users.Get(user.ID) == nil {
		t.Fatalf("expected user to be stored")
	}
}

func TestRegisterConflictLeavesRecordUntouched(t *testing.T) {
	a, users := newTestAuthenticator(t)
	first := mustRegister(t, a, "a@test.com", "abc123")
	before := users.Get(first.ID)

	_, err := a.Register(context.Background(), "a@test.com", "other-password")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	after := users.Get(first.ID)
	if after.PasswordHash != before.PasswordHash || after.Role != before.Role {
		t.Fatalf("existing record was modified")
	}
	if users.Len() != 1 {
		t.Fatalf("expected a single record, got %d", users.Len())
	}
}

func TestRegisterEmailIsCaseSensitive(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	mustRegister(t, a, "a@test.com", "abc123")
	if _, err := a.Register(context.Background(), "A@test.com", "abc123"); err != nil {
		t.Fatalf("expected differently cased email to register, got %v", err)
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	a, users := newTestAuthenticator(t)
	users.Fail = true
	_, err := a.Register(context.Background(), "a@test.com", "abc123")
	if !errors.Is(err, storetest.ErrInjected) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAuthenticateIssuesToken(t *testing.T) {
	a, users := newTestAuthenticator(t)
	user := mustRegister(t, a, "a@test.com", "abc123")

	token, err := a.Authenticate(context.Background(), "a@test.com", "abc123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
	stored := users.Get(user.ID)
	if stored.AuthToken == nil || *stored.AuthToken != token {
		t.Fatalf("expected token to be persisted")
	}
	if stored.LastLogin == nil {
		t.Fatalf("expected lastLogin to be stamped")
	}
}

func TestAuthenticateDoesNotRevealAccounts(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	mustRegister(t, a, "a@test.com", "abc123")

	_, wrongPassword := a.Authenticate(context.Background(), "a@test.com", "nope")
	_, unknownEmail := a.Authenticate(context.Background(), "ghost@test.com", "abc123")
	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPassword)
	}
	if wrongPassword != unknownEmail {
		t.Fatalf("expected identical errors, got %v and %v", wrongPassword, unknownEmail)
	}
}

func TestAuthenticateTwiceRotatesToken(t *testing.T) {
	a, users := newTestAuthenticator(t)
	mustRegister(t, a, "a@test.com", "abc123")
	g := NewGuard(users)
	ctx := context.Background()

	first, err := a.Authenticate(ctx, "a@test.com", "abc123")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := a.Authenticate(ctx, "a@test.com", "abc123")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first == second {
		t.Fatalf("expected a new token on each login")
	}
	if _, err := g.Authorize(ctx, first, Roles(models.RoleStudent)); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected old token to be invalid, got %v", err)
	}
	if _, err := g.Authorize(ctx, second, Roles(models.RoleStudent)); err != nil {
		t.Fatalf("expected latest token to authorize, got %v", err)
	}
}

func TestAuthenticateTokenGeneratorFailure(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	mustRegister(t, a, "a@test.com", "abc123")
	boom := errors.New("entropy exhausted")
	a.newToken = func() (string, error) { return "", boom }

	if _, err := a.Authenticate(context.Background(), "a@test.com", "abc123"); !errors.Is(err, boom) {
		t.Fatalf("expected generator error, got %v", err)
	}
}

func TestInvalidate(t *testing.T) {
	a, users := newTestAuthenticator(t)
	user := mustRegister(t, a, "a@test.com", "abc123")
	g := NewGuard(users)
	ctx := context.Background()

	token, err := a.Authenticate(ctx, "a@test.com", "abc123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := a.Invalidate(ctx, token); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if users.Get(user.ID).HasSession() {
		t.Fatalf("expected token to be cleared")
	}
	for _, roles := range []RoleSet{Roles(models.RoleStudent), Roles(models.RoleTeacher, models.RoleSensor)} {
		if _, err := g.Authorize(ctx, token, roles); !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("expected ErrInvalidCredential after logout, got %v", err)
		}
	}
	if err := a.Invalidate(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second logout, got %v", err)
	}
	if err := a.Invalidate(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty token, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	a, users := newTestAuthenticator(t)
	mustRegister(t, a, "a@test.com", "abc123")
	ctx := context.Background()

	token, err := a.Authenticate(ctx, "a@test.com", "abc123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	user, err := users.FindByToken(ctx, token)
	if err != nil {
		t.Fatalf("find by token: %v", err)
	}

	if err := a.ChangePassword(ctx, user, "wrong", "new-secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := a.ChangePassword(ctx, user, "abc123", "new-secret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if users.Get(user.ID).HasSession() {
		t.Fatalf("expected session to end after password change")
	}
	if _, err := a.Authenticate(ctx, "a@test.com", "abc123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to fail, got %v", err)
	}
	if _, err := a.Authenticate(ctx, "a@test.com", "new-secret"); err != nil {
		t.Fatalf("expected new password to work, got %v", err)
	}
}

func TestOverlongPasswordIsRejected(t *testing.T) {
	a, users := newTestAuthenticator(t)
	long := strings.Repeat("\u00e9", 40)

	if _, err := a.Register(context.Background(), "a@test.com", long); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if users.Len() != 0 {
		t.Fatalf("no user should have been stored")
	}

	user := mustRegister(t, a, "b@test.com", "abc123")
	if err := a.ChangePassword(context.Background(), user, "abc123", long); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if users.Get(user.ID).PasswordHash != user.PasswordHash {
		t.Fatalf("password must be unchanged")
	}
}
