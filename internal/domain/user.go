package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
)

// User validation errors. Each wraps ErrValidation.
var (
	ErrEmptyUserID         = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrEmptyEmail          = NewValidationError("email", "cannot be empty", nil)
	ErrInvalidEmail        = NewValidationError("email", "has invalid format", nil)
	ErrEmptyPassword       = NewValidationError("password", "cannot be empty", nil)
	ErrPasswordTooShort    = NewValidationError("password", "must be at least 8 characters long", nil)
	ErrPasswordTooLong     = NewValidationError("password", "must be at most 72 bytes long", nil)
	ErrEmptyHashedPassword = NewValidationError("hashed_password", "cannot be empty", nil)
)

var emailValidator = validator.New()

// User is a registered account. Users own tasks and are never mutated
// after registration.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser creates a User from an email and an already computed password digest.
// The email is stored exactly as given; lookups are case-sensitive.
func NewUser(email, hashedPassword string) (*User, error) {
	user := &User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      Now(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	return nil
}

// ValidateEmail reports whether email is a syntactically valid address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	if err := emailValidator.Var(email, "email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return ErrEmptyPassword
	case len(password) < minPasswordLength:
		return ErrPasswordTooShort
	case len(password) > maxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}
