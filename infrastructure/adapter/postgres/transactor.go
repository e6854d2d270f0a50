package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/infrastructure/service/logger"
)

type txKey struct{}

// Transactor starts database transactions and carries them in the context so
// repositories called inside WithTx join the same transaction.
type Transactor struct {
	db     *sql.DB
	logger logger.Logger
}

var _ outbound.Transactor = (*Transactor)(nil)

func NewTransactor(db *sql.DB, log logger.Logger) *Transactor {
	return &Transactor{db: db, logger: log}
}

// WithTx commits when fn returns nil and rolls back otherwise. A call nested
// inside another WithTx reuses the outer transaction.
func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) (txErr error) {
	if _, ok := extractTx(ctx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if txErr != nil {
			if err := tx.Rollback(); err != nil {
				t.logger.Error(ctx, "Rollback failed", err, nil)
			}
			return
		}
		if err := tx.Commit(); err != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func extractTx(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok && tx != nil
}

// conn returns the transaction carried by ctx, or db.
func conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := extractTx(ctx); ok {
		return tx
	}
	return db
}
