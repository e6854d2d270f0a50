package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/domain/entity"
	domainerr "github.com/fixora/storefront/domain/error"
)

// RefreshTokenRepositoryAdapter stores sha256(token + salt); raw tokens never
// reach the database.
type RefreshTokenRepositoryAdapter struct {
	db   *sql.DB
	tx   *Transactor
	salt string
}

func NewRefreshTokenRepositoryAdapter(db *sql.DB, tx *Transactor, salt string) outbound.RefreshTokenRepository {
	return &RefreshTokenRepositoryAdapter{
		db:   db,
		tx:   tx,
		salt: salt,
	}
}

func (r *RefreshTokenRepositoryAdapter) Create(ctx context.Context, token *entity.RefreshToken) error {
	if token == nil {
		return fmt.Errorf("refresh token cannot be nil")
	}
	if token.ID == "" || token.Username == "" || token.Token == "" {
		return fmt.Errorf("refresh token ID, username, and token are required")
	}

	query := `
		INSERT INTO refresh_tokens (id, username, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		token.ID,
		token.Username,
		hashToken(token.Token, r.salt),
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	return nil
}

// Consume deletes the row in the same statement that reads it, so two
// concurrent callers cannot both observe the token. An expired row is deleted
// too but reported as invalid; inside a caller's transaction that delete only
// sticks if the caller commits.
func (r *RefreshTokenRepositoryAdapter) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	username, expiresAt, err := r.take(ctx, token)
	if err != nil {
		return "", err
	}
	if !now.Before(expiresAt) {
		return "", domainerr.ErrInvalidRefreshToken
	}
	return username, nil
}

func (r *RefreshTokenRepositoryAdapter) take(ctx context.Context, token string) (string, time.Time, error) {
	if token == "" {
		return "", time.Time{}, domainerr.ErrInvalidRefreshToken
	}

	query := `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1
		RETURNING username, expires_at
	`

	var (
		username  string
		expiresAt time.Time
	)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, hashToken(token, r.salt)).Scan(&username, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, domainerr.ErrInvalidRefreshToken
		}
		return "", time.Time{}, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	return username, expiresAt, nil
}

// Rotate consumes token and inserts next in one transaction. An expired token
// commits its delete without a successor and then reports ErrInvalidRefreshToken.
func (r *RefreshTokenRepositoryAdapter) Rotate(ctx context.Context, token string, next *entity.RefreshToken, now time.Time) (string, error) {
	var (
		username string
		expired  bool
	)
	err := r.tx.WithTx(ctx, func(ctx context.Context) error {
		var (
			expiresAt time.Time
			err       error
		)
		username, expiresAt, err = r.take(ctx, token)
		if err != nil {
			return err
		}
		if !now.Before(expiresAt) {
			expired = true
			return nil
		}
		next.Username = username
		return r.Create(ctx, next)
	})
	if err != nil {
		return "", err
	}
	if expired {
		return "", domainerr.ErrInvalidRefreshToken
	}
	return username, nil
}

func (r *RefreshTokenRepositoryAdapter) RevokeByUsername(ctx context.Context, username string) (int64, error) {
	if username == "" {
		return 0, fmt.Errorf("username cannot be empty")
	}

	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM refresh_tokens WHERE username = $1`, username)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens by username: %w", err)
	}
	return result.RowsAffected()
}

func (r *RefreshTokenRepositoryAdapter) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected()
}

func hashToken(raw, salt string) []byte {
	sum := sha256.Sum256([]byte(raw + salt))
	return sum[:]
}
