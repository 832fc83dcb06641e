package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"arena-ledger/internal/core/domain"
	"arena-ledger/internal/core/ports"
	"arena-ledger/pkg/pagetoken"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. The transaction
// log is append-only; this repo only ever reads it.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, wallet_id, user_id, type, amount, balance_after,
		category, related_to, related_id, status, transfer_id, transaction_date, created_at`

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// List fetches one page of a wallet's history, newest first. Keyset
// pagination on (transaction_date, id) keeps pages restartable: the returned
// cursor re-anchors the scan regardless of rows appended since.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, *pagetoken.Cursor, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("wallet_id = $%d", argIdx))
	args = append(args, params.WalletID)
	argIdx++

	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *params.Category)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_date >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_date <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}
	if params.Cursor != nil {
		conditions = append(conditions, fmt.Sprintf("(transaction_date, id) < ($%d, $%d)", argIdx, argIdx+1))
		args = append(args, params.Cursor.Date, params.Cursor.ID)
		argIdx += 2
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Fetch one extra row to learn whether another page exists.
	query := fmt.Sprintf(`SELECT %s FROM transactions %s
		ORDER BY transaction_date DESC, id DESC LIMIT $%d`, transactionColumns, where, argIdx)
	args = append(args, params.PageSize+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.WalletID, &t.UserID, &t.Type, &t.Amount, &t.BalanceAfter,
			&t.Category, &t.RelatedTo, &t.RelatedID, &t.Status, &t.TransferID,
			&t.TransactionDate, &t.CreatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	var next *pagetoken.Cursor
	if len(txns) > params.PageSize {
		txns = txns[:params.PageSize]
		last := txns[len(txns)-1]
		next = &pagetoken.Cursor{Date: last.TransactionDate, ID: last.ID}
	}
	return txns, next, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.WalletID, &t.UserID, &t.Type, &t.Amount, &t.BalanceAfter,
		&t.Category, &t.RelatedTo, &t.RelatedID, &t.Status, &t.TransferID,
		&t.TransactionDate, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
