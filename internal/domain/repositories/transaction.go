package repositories

import (
	"context"

	"canopy/internal/domain/models"
)

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions. Every structural tree
// mutation runs inside ExecTx so that a detected violation aborts with no
// partial effect.
type TransactionManager interface {
	// ExecTx executes a function within a transaction
	ExecTx(ctx context.Context, fn TxFn) error

	// ExecTxInScope executes a function within a transaction after taking a
	// transaction-level lock on the given scope. Concurrent structural
	// mutations on the same scope serialize behind the lock; the lock is
	// released when the transaction commits or rolls back.
	ExecTxInScope(ctx context.Context, scope models.Scope, fn TxFn) error
}
