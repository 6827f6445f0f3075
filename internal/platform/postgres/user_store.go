package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jfowler/remind-api/internal/domain"
	"github.com/jfowler/remind-api/internal/store"
)

// UserStore implements store.UserStore using a PostgreSQL database.
type UserStore struct {
	db *sql.DB
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a PostgreSQL implementation of the UserStore
// interface. The database connection is initialized and managed by the
// caller.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create implements store.UserStore.Create. Usernames are unique
// case-insensitively, enforced by an index on lower(username).
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	const query = `
		INSERT INTO users (id, username, hashed_password, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.HashedPassword, user.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrUsernameExists, err)
		}
		return mapError(err)
	}
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `
		SELECT id, username, hashed_password, created_at
		FROM users
		WHERE id = $1`

	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetByUsername implements store.UserStore.GetByUsername. The lookup is
// case-insensitive.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
		SELECT id, username, hashed_password, created_at
		FROM users
		WHERE lower(username) = lower($1)`

	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *UserStore) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, mapError(err)
	}
	return &user, nil
}
