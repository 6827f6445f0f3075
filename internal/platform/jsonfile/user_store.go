package jsonfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jfowler/remind-api/internal/domain"
	"github.com/jfowler/remind-api/internal/store"
)

// userRecord is the on-disk shape of a user. The password field holds the
// bcrypt hash; domain.User deliberately excludes it from JSON, so the
// store maps it explicitly.
type userRecord struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore is a file-backed implementation of store.UserStore.
type UserStore struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	users []userRecord
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// OpenUserStore loads the user file at path. A missing file is an empty
// store.
func OpenUserStore(path string, logger *slog.Logger) (*UserStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create user store directory: %w", err)
	}

	var users []userRecord
	if err := readJSON(path, &users); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load user store: %w", err)
	}

	logger.Info("user store opened", "path", path, "user_count", len(users))

	return &UserStore{
		path:   path,
		logger: logger.With(slog.String("component", "jsonfile_user_store")),
		users:  users,
	}, nil
}

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return store.ErrUsernameExists
		}
	}

	s.users = append(s.users, userRecord{
		ID:        user.ID,
		Username:  user.Username,
		Password:  user.HashedPassword,
		CreatedAt: user.CreatedAt,
	})
	return s.persistLocked()
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == id {
			return recordToUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByUsername implements store.UserStore.GetByUsername.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return recordToUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

func recordToUser(r userRecord) *domain.User {
	return &domain.User{
		ID:             r.ID,
		Username:       r.Username,
		HashedPassword: r.Password,
		CreatedAt:      r.CreatedAt,
	}
}

func (s *UserStore) persistLocked() error {
	users := s.users
	if users == nil {
		users = []userRecord{}
	}
	if err := writeAtomic(s.path, users); err != nil {
		s.logger.Error("user store rewrite failed", "path", s.path, "error", err)
		return fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}
	return nil
}
