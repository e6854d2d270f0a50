package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/domain/entity"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/domain/valueobject"
	"github.com/fixora/storefront/infrastructure/service/logger"
)

// dummyPassword is hashed once at startup so Verify can spend the same bcrypt
// time on unknown usernames as on known ones.
const dummyPassword = "storefront-timing-equalizer"

// CredentialStore owns username -> password hash records.
type CredentialStore struct {
	users     outbound.UserRepository
	passwords outbound.PasswordService
	logger    logger.Logger
	dummyHash string
}

func NewCredentialStore(users outbound.UserRepository, passwords outbound.PasswordService, log logger.Logger) (*CredentialStore, error) {
	dummyHash, err := passwords.HashPassword(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &CredentialStore{
		users:     users,
		passwords: passwords,
		logger:    log,
		dummyHash: dummyHash,
	}, nil
}

// Create hashes rawPassword and stores a new user. ErrUsernameTaken when the
// username already exists.
func (s *CredentialStore) Create(ctx context.Context, username, rawPassword string) (*entity.User, error) {
	creds, err := valueobject.NewCredentials(username, rawPassword)
	if err != nil {
		return nil, domainerr.NewValidationError(err.Error())
	}

	hash, err := s.passwords.HashPassword(creds.Password())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := entity.NewUser(creds.Username(), hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domainerr.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Verify returns the user when rawPassword matches. Unknown username and wrong
// password both yield ErrInvalidCredentials.
func (s *CredentialStore) Verify(ctx context.Context, username, rawPassword string) (*entity.User, error) {
	if username == "" || rawPassword == "" {
		return nil, domainerr.ErrInvalidCredentials
	}
	// no stored password can be this long
	if len(rawPassword) > valueobject.MaxPasswordLength {
		return nil, domainerr.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			_, _ = s.passwords.VerifyPassword(rawPassword, s.dummyHash)
			return nil, domainerr.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	start := time.Now()
	ok, err := s.passwords.VerifyPassword(rawPassword, user.PasswordHash)
	logger.LogPerformance(ctx, s.logger, "password_verification", time.Since(start), map[string]interface{}{
		"username": username,
	})
	if err != nil {
		s.logger.Error(ctx, "Stored password hash is unusable", err, map[string]interface{}{
			"username": username,
		})
		return nil, domainerr.ErrInvalidCredentials
	}
	if !ok {
		return nil, domainerr.ErrInvalidCredentials
	}
	return user, nil
}

func (s *CredentialStore) Find(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *CredentialStore) SetAvatar(ctx context.Context, username, url string) error {
	if err := s.users.UpdateAvatar(ctx, username, url); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update avatar: %w", err)
	}
	return nil
}
