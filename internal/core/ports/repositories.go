package ports

import (
	"context"
	"time"

	"arena-ledger/internal/core/domain"
	"arena-ledger/pkg/pagetoken"

	"github.com/google/uuid"
)

// WalletRepository defines persistence operations for wallets. Reads return
// (nil, nil) when the wallet does not exist. Balance and version are never
// written through this interface — only LedgerStore.ApplyAtomic mutates them.
type WalletRepository interface {
	// Create inserts a zero-balance wallet. Returns domain.ErrWalletExists
	// if the user already has one.
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
}

// ApplyParams describes one balance change to apply atomically.
type ApplyParams struct {
	WalletID        uuid.UUID
	Delta           int64 // Positive for credit, negative for debit
	ExpectedVersion int64
	// Transaction is the ledger entry to append. Its BalanceAfter is filled
	// in by the store from the post-update balance.
	Transaction *domain.Transaction
	// Idempotency, when non-nil, is registered in the same unit of work so
	// the mutation and its replay guard commit or roll back together.
	Idempotency *domain.IdempotencyRecord
}

// LedgerStore is the single writer of wallet balances. ApplyAtomic performs,
// in one storage transaction: the version-guarded balance update, the
// append of the transaction row, and (optionally) the idempotency
// registration. It returns the new balance.
//
// Errors: domain.ErrVersionConflict when ExpectedVersion is stale,
// domain.ErrInsufficientFunds when the delta would take the balance below
// zero, domain.ErrDuplicateIdempotencyKey / domain.ErrDuplicateTransaction
// on uniqueness violations.
type LedgerStore interface {
	ApplyAtomic(ctx context.Context, p ApplyParams) (int64, error)
}

// TransactionListParams holds filter + keyset pagination for history reads.
type TransactionListParams struct {
	WalletID uuid.UUID
	Type     *domain.TransactionType
	Category *domain.TransactionCategory
	From     *time.Time
	To       *time.Time
	Cursor   *pagetoken.Cursor // nil = first page
	PageSize int
}

// TransactionRepository defines read access to the append-only transaction
// log, ordered by (transaction_date, id) descending.
type TransactionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// List returns one page plus the cursor of the next page (nil when the
	// log is exhausted).
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, *pagetoken.Cursor, error)
}

// IdempotencyRepository is the durable half of the idempotency guard.
type IdempotencyRepository interface {
	// Resolve returns the record for (kind, key), or (nil, nil) when the
	// operation has not been applied yet.
	Resolve(ctx context.Context, kind domain.OperationKind, key string) (*domain.IdempotencyRecord, error)
	// Register inserts a record outside any mutation (used by the transfer
	// coordinator for its terminal outcome). Returns
	// domain.ErrDuplicateIdempotencyKey when another writer won the race.
	Register(ctx context.Context, record *domain.IdempotencyRecord) error
}

// TransferRepository persists transfer saga bookkeeping.
type TransferRepository interface {
	Create(ctx context.Context, record *domain.TransferRecord) error
	Update(ctx context.Context, record *domain.TransferRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TransferRecord, error)
}
