package postgres

import (
	"context"
	"errors"
	"fmt"

	"arena-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository. Records written as
// part of a balance mutation go through LedgerStore.ApplyAtomic instead;
// Register here serves the transfer coordinator's terminal-outcome keys.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Resolve fetches the record for (kind, key), or (nil, nil) on a miss.
func (r *IdempotencyRepo) Resolve(ctx context.Context, kind domain.OperationKind, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT operation_kind, key, transaction_id, response_json, created_at
		FROM idempotency_records WHERE operation_kind = $1 AND key = $2`

	rec := &domain.IdempotencyRecord{}
	err := r.pool.QueryRow(ctx, query, kind, key).Scan(
		&rec.OperationKind, &rec.Key, &rec.TransactionID, &rec.ResponseJSON, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return rec, nil
}

// Register inserts a record. First writer wins; losers get
// domain.ErrDuplicateIdempotencyKey and should resolve the existing record.
func (r *IdempotencyRepo) Register(ctx context.Context, rec *domain.IdempotencyRecord) error {
	query := `INSERT INTO idempotency_records (operation_kind, key, transaction_id, response_json, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		rec.OperationKind, rec.Key, rec.TransactionID, rec.ResponseJSON, rec.CreatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return domain.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}
