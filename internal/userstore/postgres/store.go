package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/verse-labs/presence-server/internal/userstore"
)

const (
	queryGetUserByUsername = `
		SELECT id, credential_hash
		FROM users
		WHERE username = $1;
	`
	queryCreateUser = `
		INSERT INTO users (id, username, credential_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
)

// Store is the pgx-backed user store.
type Store struct {
	pool *pgxpool.Pool
}

// New builds a pool from the DSN and verifies it with a ping.
func New(ctx context.Context, dsn string) (*Store, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if pc.ConnConfig.RuntimeParams == nil {
		pc.ConnConfig.RuntimeParams = map[string]string{}
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "presence-server"

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Authenticate(ctx context.Context, username, credential string) (string, error) {
	username = userstore.NormalizeUsername(username)
	if username == "" {
		return "", userstore.ErrUsernameRequired
	}

	var (
		id   string
		hash string
	)
	err := s.pool.QueryRow(ctx, queryGetUserByUsername, username).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", userstore.ErrNotFound
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)); err != nil {
		return "", userstore.ErrInvalidCredentials
	}
	return id, nil
}

func (s *Store) Register(ctx context.Context, username, credential string) (string, error) {
	username = userstore.NormalizeUsername(username)
	if username == "" {
		return "", userstore.ErrUsernameRequired
	}
	if err := userstore.ValidateCredential(credential); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	var id string
	err = s.pool.QueryRow(ctx, queryCreateUser,
		uuid.New().String(), username, string(hash), time.Now(),
	).Scan(&id)
	if err != nil {
		return "", mapPgError(err)
	}
	return id, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 - unique violation
		if pgErr.Code == "23505" {
			return userstore.ErrAlreadyExists
		}
	}
	return err
}
