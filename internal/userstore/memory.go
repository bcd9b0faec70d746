package userstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memoryUser struct {
	id   string
	hash string
}

// Memory is the in-process store used when no DSN is configured.
// Credentials are bcrypt-hashed even here; plaintext never sits in memory
// longer than the call.
type Memory struct {
	mu     sync.RWMutex
	byName map[string]memoryUser
}

func NewMemory() *Memory {
	return &Memory{byName: make(map[string]memoryUser)}
}

func (m *Memory) Authenticate(ctx context.Context, username, credential string) (string, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return "", ErrUsernameRequired
	}

	m.mu.RLock()
	u, ok := m.byName[username]
	m.mu.RUnlock()

	if !ok {
		return "", ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.hash), []byte(credential)); err != nil {
		return "", ErrInvalidCredentials
	}
	return u.id, nil
}

func (m *Memory) Register(ctx context.Context, username, credential string) (string, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return "", ErrUsernameRequired
	}
	if err := ValidateCredential(credential); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[username]; ok {
		return "", ErrAlreadyExists
	}
	id := uuid.New().String()
	m.byName[username] = memoryUser{id: id, hash: string(hash)}
	return id, nil
}
