// Package auth issues and revokes session tokens and decides whether a
// presented token may reach a role-gated operation.
//
// Tokens are opaque random strings stored on the user record. They carry no
// expiry: a token stays valid until logout clears it or the next login
// replaces it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stationlab/weatherapi/database"
	"github.com/stationlab/weatherapi/models"
	"github.com/stationlab/weatherapi/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CredentialStore is the part of the user store the Authenticator needs.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByToken(ctx context.Context, token string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (bson.ObjectID, error)
	Replace(ctx context.Context, id bson.ObjectID, user *models.User) (int64, error)
}

type Authenticator struct {
	store    CredentialStore
	now      func() time.Time
	newToken func() (string, error)
}

func NewAuthenticator(store CredentialStore) *Authenticator {
	return &Authenticator{
		store:    store,
		now:      time.Now,
		newToken: utils.GenerateAuthToken,
	}
}

// Authenticate checks an email/password pair and starts a new session,
// replacing any token the user already held.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := a.store.FindByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("find user by email: %w", err)
	}

	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := a.newToken()
	if err != nil {
		return "", err
	}
	now := a.now().UTC()
	user.AuthToken = &token
	user.LastLogin = &now

	matched, err := a.store.Replace(ctx, user.ID, user)
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	// deleted between lookup and write
	if matched == 0 {
		return "", ErrInvalidCredentials
	}
	return token, nil
}

// Invalidate ends the session identified by token. ErrNotFound means the
// token was already cleared or never issued.
func (a *Authenticator) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotFound
	}
	user, err := a.store.FindByToken(ctx, token)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find user by token: %w", err)
	}

	user.AuthToken = nil
	matched, err := a.store.Replace(ctx, user.ID, user)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

// Register creates a student account. The email check and the insert are
// separate operations; the unique index on email catches the rare pair of
// concurrent registrations that slips between them.
func (a *Authenticator) Register(ctx context.Context, email, password string) (*models.User, error) {
	_, err := a.store.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           bson.NewObjectID(),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		CreatedAt:    a.now().UTC(),
	}
	if _, err := a.store.Insert(ctx, user); err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password of an authenticated user and ends
// the current session.
func (a *Authenticator) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if err := utils.CheckPassword(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := utils.HashPassword(next)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return ErrPasswordTooLong
	}
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	updated := *user
	updated.PasswordHash = hash
	updated.AuthToken = nil
	matched, err := a.store.Replace(ctx, user.ID, &updated)
	if err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}
