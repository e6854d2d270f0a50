package valueobject

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidUsername  = errors.New("username must be 3-64 characters of letters, digits, '.', '_' or '-'")
	ErrPasswordTooShort = errors.New("password must be at least 3 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

const (
	MinPasswordLength = 3
	MaxPasswordLength = 72
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

type Credentials struct {
	username string
	password string
}

func NewCredentials(username, password string) (*Credentials, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	return &Credentials{
		username: username,
		password: password,
	}, nil
}

func (c *Credentials) Username() string {
	return c.username
}

func (c *Credentials) Password() string {
	return c.password
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword counts bytes. MaxPasswordLength is the bcrypt input limit.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
