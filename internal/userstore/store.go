package userstore

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("userstore: user not found")
	ErrAlreadyExists      = errors.New("userstore: user already exists")
	ErrInvalidCredentials = errors.New("userstore: invalid credentials")
	ErrUsernameRequired   = errors.New("userstore: username is required")
	ErrCredentialTooShort = errors.New("userstore: credential too short")
)

// MinCredentialLength applies to both backends.
const MinCredentialLength = 6

// Store is the only persistence surface the core depends on. It is called
// during the join handshake and nowhere else.
type Store interface {
	Authenticate(ctx context.Context, username, credential string) (userID string, err error)
	Register(ctx context.Context, username, credential string) (userID string, err error)
}

// NormalizeUsername lowercases and trims, так что "Alice" и "alice" — один
// пользователь.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidateCredential(credential string) error {
	if len(credential) < MinCredentialLength {
		return ErrCredentialTooShort
	}
	return nil
}
