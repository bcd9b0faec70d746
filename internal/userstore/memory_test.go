package userstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.Register(ctx, "Alice", "sw0rdfish")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := m.Authenticate(ctx, "alice", "sw0rdfish")
	require.NoError(t, err)
	assert.Equal(t, id, got, "usernames are case-insensitive")

	_, err = m.Authenticate(ctx, "alice", "wrong-one")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Authenticate(ctx, "nobody", "sw0rdfish")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_RegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Register(ctx, "alice", "sw0rdfish")
	require.NoError(t, err)

	_, err = m.Register(ctx, " Alice ", "another-one")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemory_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Register(ctx, "   ", "sw0rdfish")
	assert.ErrorIs(t, err, ErrUsernameRequired)

	_, err = m.Register(ctx, "alice", "short")
	assert.ErrorIs(t, err, ErrCredentialTooShort)
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
	assert.Equal(t, "", NormalizeUsername("   "))
}
