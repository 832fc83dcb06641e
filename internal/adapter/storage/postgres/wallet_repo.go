package postgres

import (
	"context"
	"errors"
	"fmt"

	"arena-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository. It never touches balance or
// version outside wallet creation; those columns belong to the LedgerStore.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, user_id, currency, balance, total_credits, total_debits,
		version, active, last_transaction_at, created_at, updated_at`

// Create inserts a new zero-balance wallet.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, currency, balance, total_credits, total_debits,
		version, active, last_transaction_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, w.Currency, w.Balance, w.TotalCredits, w.TotalDebits,
		w.Version, w.Active, w.LastTransactionAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); errors.Is(mapped, domain.ErrWalletExists) {
			return domain.ErrWalletExists
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByUserID fetches a wallet by its owning user.
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return r.scanWallet(r.pool.QueryRow(ctx, query, userID))
}

// GetByID fetches a wallet by its UUID.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return r.scanWallet(r.pool.QueryRow(ctx, query, id))
}

func (r *WalletRepo) scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.UserID, &w.Currency, &w.Balance, &w.TotalCredits, &w.TotalDebits,
		&w.Version, &w.Active, &w.LastTransactionAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
