package auth

import (
	"context"
	"errors"

	"github.com/JeanCalmon10/madr/internal/domain/user"
)

var (
	// ErrInvalidToken covers missing, malformed, mis-signed and expired tokens.
	ErrInvalidToken = errors.New("invalid authentication credentials")
	// ErrUnknownUser means the token verified but its subject no longer exists,
	// e.g. the account was deleted after the token was issued.
	ErrUnknownUser = errors.New("user not found")
)

// Keep these interfaces small so tests can fake them easily.

type TokenValidator interface {
	ParseAndValidate(token string) (*Claims, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

// Resolver turns a bearer token into the live user record it was issued for.
// The user is re-read from storage on every call rather than trusted from
// token payload, so callers always see current attributes.
type Resolver struct {
	tokens TokenValidator
	users  UserFinder
}

func NewResolver(tokens TokenValidator, users UserFinder) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (user.User, error) {
	claims, err := r.tokens.ParseAndValidate(token)

	if err != nil {
		return user.User{}, ErrInvalidToken
	}

	id, err := claims.UserID()

	if err != nil {
		return user.User{}, ErrInvalidToken
	}

	u, err := r.users.GetByID(ctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUnknownUser
		}

		return user.User{}, err
	}

	return u, nil
}
