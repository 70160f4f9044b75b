package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"farofatrip/internal/models"
)

// UserStore is what the resolver needs from the identity store.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByEmail(ctx context.Context, email string) ([]models.User, error)
}

// Resolver turns a login payload (username or e-mail, plus password) into
// exactly one account, or fails with a specific reason. Finding the account
// and verifying the password are separate steps so each failure mode gets
// its own error.
type Resolver struct {
	Store UserStore
}

func NewResolver(store UserStore) *Resolver {
	return &Resolver{Store: store}
}

func (r *Resolver) Resolve(ctx context.Context, username, email, password string) (*models.User, error) {
	var user *models.User

	switch {
	case username != "":
		found, err := r.Store.GetUserByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrInvalidCredentials
			}
			return nil, fmt.Errorf("lookup by username: %w", err)
		}
		user = found

	case email != "":
		matches, err := r.Store.GetUsersByEmail(ctx, normalizeEmail(email))
		if err != nil {
			return nil, fmt.Errorf("lookup by email: %w", err)
		}
		switch len(matches) {
		case 0:
			return nil, ErrUserNotFound
		case 1:
			user = &matches[0]
		default:
			return nil, ErrAmbiguousEmail
		}

	default:
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
