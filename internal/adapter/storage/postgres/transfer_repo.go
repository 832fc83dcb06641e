package postgres

import (
	"context"
	"errors"
	"fmt"

	"arena-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

const transferColumns = `id, from_wallet_id, to_wallet_id, from_user_id, to_user_id, amount,
		status, debit_transaction_id, credit_transaction_id, reversal_transaction_id,
		created_at, updated_at`

// Create inserts a new transfer record, normally in PENDING state.
func (r *TransferRepo) Create(ctx context.Context, rec *domain.TransferRecord) error {
	query := `INSERT INTO transfer_records (id, from_wallet_id, to_wallet_id, from_user_id, to_user_id,
		amount, status, debit_transaction_id, credit_transaction_id, reversal_transaction_id,
		created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.FromWalletID, rec.ToWalletID, rec.FromUserID, rec.ToUserID,
		rec.Amount, rec.Status, rec.DebitTransactionID, rec.CreditTransactionID,
		rec.ReversalTransactionID, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer record: %w", err)
	}
	return nil
}

// Update writes the current saga state of a transfer record.
func (r *TransferRepo) Update(ctx context.Context, rec *domain.TransferRecord) error {
	query := `UPDATE transfer_records
		SET status = $1, debit_transaction_id = $2, credit_transaction_id = $3,
			reversal_transaction_id = $4, updated_at = NOW()
		WHERE id = $5`

	tag, err := r.pool.Exec(ctx, query,
		rec.Status, rec.DebitTransactionID, rec.CreditTransactionID,
		rec.ReversalTransactionID, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update transfer record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transfer record not found: %s", rec.ID)
	}
	return nil
}

// GetByID fetches a transfer record, or (nil, nil) when missing.
func (r *TransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM transfer_records WHERE id = $1`

	rec := &domain.TransferRecord{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.FromWalletID, &rec.ToWalletID, &rec.FromUserID, &rec.ToUserID,
		&rec.Amount, &rec.Status, &rec.DebitTransactionID, &rec.CreditTransactionID,
		&rec.ReversalTransactionID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer record: %w", err)
	}
	return rec, nil
}
