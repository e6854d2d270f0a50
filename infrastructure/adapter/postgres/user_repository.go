package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/domain/entity"
	domainerr "github.com/fixora/storefront/domain/error"
)

type UserRepositoryAdapter struct {
	db *sql.DB
}

func NewUserRepositoryAdapter(db *sql.DB) outbound.UserRepository {
	return &UserRepositoryAdapter{
		db: db,
	}
}

func (r *UserRepositoryAdapter) Create(ctx context.Context, user *entity.User) error {
	if user == nil || user.Username == "" || user.PasswordHash == "" {
		return fmt.Errorf("username and password hash are required")
	}

	query := `
		INSERT INTO users (username, hashed_password, avatar_url, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		sql.NullString{String: user.AvatarURL, Valid: user.AvatarURL != ""},
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainerr.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryAdapter) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT username, hashed_password, avatar_url, created_at
		FROM users
		WHERE username = $1
	`

	var (
		user   entity.User
		avatar sql.NullString
	)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, username).Scan(
		&user.Username,
		&user.PasswordHash,
		&avatar,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	user.AvatarURL = avatar.String

	return &user, nil
}

func (r *UserRepositoryAdapter) UpdateAvatar(ctx context.Context, username, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $1 WHERE username = $2`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, avatarURL, username)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domainerr.ErrNotFound
	}

	return nil
}
