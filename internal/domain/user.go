package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyUsername       = errors.New("username cannot be empty")
	ErrUsernameTooLong     = errors.New("username must be at most 64 characters long")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User represents a registered account that owns tasks and receives
// notifications.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`

	// Password holds the plaintext password temporarily during
	// registration; it is never persisted or serialized.
	Password string `json:"-"`

	// HashedPassword is the bcrypt hash stored by the user store.
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser creates a new User with the given username and plaintext
// password. The caller is responsible for hashing the password before
// handing the user to a store.
func NewUser(username, password string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Username:  username,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Username == "" {
		return ErrEmptyUsername
	}

	if len(u.Username) > 64 {
		return ErrUsernameTooLong
	}

	if u.Password != "" {
		// bcrypt ignores input beyond 72 bytes, so longer passwords would
		// silently truncate.
		if len(u.Password) < 8 {
			return ErrPasswordTooShort
		}
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		// Users loaded from a store carry only the hash.
		return ErrEmptyHashedPassword
	}

	return nil
}
