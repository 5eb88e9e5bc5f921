package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/stationlab/weatherapi/database"
	"github.com/stationlab/weatherapi/models"
)

// RoleSet is the set of roles a protected operation admits. Membership is
// exact; no role implies another.
type RoleSet map[models.Role]struct{}

func Roles(roles ...models.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(r models.Role) bool {
	_, ok := s[r]
	return ok
}

// TokenResolver maps a session token to its user.
type TokenResolver interface {
	FindByToken(ctx context.Context, token string) (*models.User, error)
}

// Guard decides whether a presented token may reach an operation. It keeps
// no state of its own: every call is one store lookup.
type Guard struct {
	users TokenResolver
}

func NewGuard(users TokenResolver) *Guard {
	return &Guard{users: users}
}

// Authorize returns the user owning token when their role is in allowed.
// Store failures are returned wrapped and never treated as an allow.
func (g *Guard) Authorize(ctx context.Context, token string, allowed RoleSet) (*models.User, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}
	user, err := g.users.FindByToken(ctx, token)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if !allowed.Contains(user.Role) {
		return nil, ErrForbidden
	}
	return user, nil
}
