package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/pkg/metrics"
)

const (
	maxTxAttempts = 3
	retryBackoff  = 25 * time.Millisecond
)

// inSerializableTx runs fn in a SERIALIZABLE transaction, retrying it when
// Postgres aborts it with a serialization failure or deadlock. Any other error
// returned by fn is passed through unchanged.
func inSerializableTx(ctx context.Context, db *sqlx.DB, op string, fn func(tx *sqlx.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := runTx(ctx, db, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		if attempt == maxTxAttempts {
			slog.ErrorContext(ctx, "serializable transaction gave up", "op", op, "attempts", attempt, "error", err)
			return fmt.Errorf("%s: %w", op, domain.ErrStoreConflict)
		}

		metrics.StoreRetries.WithLabelValues(op).Inc()
		slog.WarnContext(ctx, "retrying serializable transaction", "op", op, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
}

func runTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
