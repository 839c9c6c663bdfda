// Package auth resolves request credentials to identities.
package auth

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shop-backend/internal/models"
)

var (
	ErrUnauthenticated    = errors.New("not authorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Identity is the account a request acts as.
type Identity struct {
	UserID primitive.ObjectID
	Email  string
	Role   models.Role
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

// IdentityResolver maps a bearer credential to an Identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
}

type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenResolver verifies a signed token and reloads the user so that role
// changes and deletions take effect before the token expires.
type TokenResolver struct {
	tokens *TokenManager
	users  UserLookup
}

func NewTokenResolver(tokens *TokenManager, users UserLookup) *TokenResolver {
	return &TokenResolver{tokens: tokens, users: users}
}

func (r *TokenResolver) Resolve(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	claims, err := r.tokens.Parse(credential)
	if err != nil {
		return nil, err
	}

	user, err := r.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return identityOf(user), nil
}

// StaticResolver ignores the credential and always acts as the configured
// admin account. Development only.
type StaticResolver struct {
	email string
	users UserLookup
}

func NewStaticResolver(email string, users UserLookup) *StaticResolver {
	return &StaticResolver{email: email, users: users}
}

func (r *StaticResolver) Resolve(ctx context.Context, _ string) (*Identity, error) {
	user, err := r.users.FindByEmail(ctx, r.email)
	if err != nil {
		return nil, fmt.Errorf("%w: static account %s: %v", ErrUnauthenticated, r.email, err)
	}
	return identityOf(user), nil
}

func identityOf(u *models.User) *Identity {
	return &Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}
