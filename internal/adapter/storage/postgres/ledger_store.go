package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"arena-ledger/internal/core/domain"
	"arena-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// LedgerStore implements ports.LedgerStore. It is the only writer of wallet
// balances: one database transaction covers the version-guarded balance
// update, the transaction-log append, and the idempotency registration, so
// they commit or roll back as a unit.
type LedgerStore struct {
	pool Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// ApplyAtomic applies one balance delta and appends the ledger entry.
// The wallet UPDATE carries both guards in its WHERE clause: the optimistic
// version check and the non-negative balance floor. A miss is disambiguated
// by re-reading the version inside the same transaction.
func (s *LedgerStore) ApplyAtomic(ctx context.Context, p ports.ApplyParams) (int64, error) {
	if p.Transaction == nil {
		return 0, fmt.Errorf("apply atomic: transaction entry is required")
	}

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	creditInc, debitInc := int64(0), int64(0)
	if p.Delta >= 0 {
		creditInc = p.Delta
	} else {
		debitInc = -p.Delta
	}

	updateQuery := `UPDATE wallets
		SET balance = balance + $1,
			version = version + 1,
			total_credits = total_credits + $2,
			total_debits = total_debits + $3,
			last_transaction_at = $4,
			updated_at = NOW()
		WHERE id = $5 AND version = $6 AND balance + $1 >= 0
		RETURNING balance`

	var newBalance int64
	err = dbTx.QueryRow(ctx, updateQuery,
		p.Delta, creditInc, debitInc, p.Transaction.TransactionDate,
		p.WalletID, p.ExpectedVersion,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, s.classifyUpdateMiss(ctx, dbTx, p)
		}
		return 0, fmt.Errorf("update wallet balance: %w", err)
	}

	t := p.Transaction
	t.BalanceAfter = newBalance

	insertQuery := `INSERT INTO transactions (id, wallet_id, user_id, type, amount, balance_after,
		category, related_to, related_id, status, transfer_id, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = dbTx.Exec(ctx, insertQuery,
		t.ID, t.WalletID, t.UserID, t.Type, t.Amount, t.BalanceAfter,
		t.Category, t.RelatedTo, t.RelatedID, t.Status, t.TransferID,
		t.TransactionDate, t.CreatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return 0, mapped
		}
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	if p.Idempotency != nil {
		rec := p.Idempotency
		rec.TransactionID = t.ID
		if rec.ResponseJSON == nil {
			rec.ResponseJSON, err = json.Marshal(t)
			if err != nil {
				return 0, fmt.Errorf("marshal idempotency response: %w", err)
			}
		}

		idemQuery := `INSERT INTO idempotency_records (operation_kind, key, transaction_id, response_json, created_at)
			VALUES ($1, $2, $3, $4, $5)`
		_, err = dbTx.Exec(ctx, idemQuery,
			rec.OperationKind, rec.Key, rec.TransactionID, rec.ResponseJSON, rec.CreatedAt,
		)
		if err != nil {
			if mapped := mapUniqueViolation(err); mapped != nil {
				return 0, mapped
			}
			return 0, fmt.Errorf("insert idempotency record: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return 0, mapped
		}
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return newBalance, nil
}

// classifyUpdateMiss tells a stale version apart from a balance-floor hit.
// The UPDATE matched no row; the wallet row still exists (wallets are never
// deleted), so either the version moved or the delta would go negative.
func (s *LedgerStore) classifyUpdateMiss(ctx context.Context, dbTx pgx.Tx, p ports.ApplyParams) error {
	var version int64
	err := dbTx.QueryRow(ctx, `SELECT version FROM wallets WHERE id = $1`, p.WalletID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("wallet not found: %s", p.WalletID)
		}
		return fmt.Errorf("re-read wallet version: %w", err)
	}
	if version != p.ExpectedVersion {
		return domain.ErrVersionConflict
	}
	return domain.ErrInsufficientFunds
}
