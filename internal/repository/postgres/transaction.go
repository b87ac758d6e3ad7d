package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/repositories"
)

// TransactionManager implements the TransactionManager interface
type TransactionManager struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(pool *pgxpool.Pool, logger *slog.Logger) repositories.TransactionManager {
	return &TransactionManager{pool: pool, logger: logger}
}

// ExecTx executes a function within a transaction
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return tm.run(ctx, nil, fn)
}

// ExecTxInScope executes a function within a transaction after taking a
// transaction-level advisory lock derived from the scope. Structural
// mutations on the same scope serialize behind the lock; the lock releases
// on commit or rollback.
func (tm *TransactionManager) ExecTxInScope(ctx context.Context, scope models.Scope, fn repositories.TxFn) error {
	return tm.run(ctx, &scope, fn)
}

func (tm *TransactionManager) run(ctx context.Context, scope *models.Scope, fn repositories.TxFn) error {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Defer rollback - safe even if commit succeeds
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			tm.logger.Warn("rollback failed", "error", err)
		}
	}()

	if scope != nil {
		// hashtextextended gives a stable 64-bit key per scope
		_, err = tx.Exec(ctx,
			"SELECT pg_advisory_xact_lock(hashtextextended($1 || '/' || $2, 0))",
			scope.TenantID, scope.ContainerID,
		)
		if err != nil {
			return fmt.Errorf("lock scope: %w", err)
		}
	}

	// Store transaction in context so repositories participate in it
	txCtx := repositories.SetTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if isPgSerializationError(err) {
			return fmt.Errorf("structural mutation raced: %w", domain.ErrTxConflict)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isPgSerializationError(err) {
			return fmt.Errorf("commit raced: %w", domain.ErrTxConflict)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
