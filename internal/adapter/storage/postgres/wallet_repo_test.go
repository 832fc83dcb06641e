package postgres

import (
	"context"
	"testing"
	"time"

	"arena-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(userID uuid.UUID) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Currency:  "INR",
		Balance:   0,
		Version:   1,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func walletTestColumns() []string {
	return []string{"id", "user_id", "currency", "balance", "total_credits", "total_debits",
		"version", "active", "last_transaction_at", "created_at", "updated_at"}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows(walletTestColumns()).AddRow(
		w.ID, w.UserID, w.Currency, w.Balance, w.TotalCredits, w.TotalDebits,
		w.Version, w.Active, w.LastTransactionAt, w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.UserID, w.Currency, w.Balance, w.TotalCredits, w.TotalDebits,
			w.Version, w.Active, w.LastTransactionAt, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Create_Duplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.UserID, w.Currency, w.Balance, w.TotalCredits, w.TotalDebits,
			w.Version, w.Active, w.LastTransactionAt, w.CreatedAt, w.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "wallets_user_id_key"})

	err = repo.Create(context.Background(), w)
	assert.ErrorIs(t, err, domain.ErrWalletExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id").
		WithArgs(w.UserID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByUserID(context.Background(), w.UserID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.Equal(t, w.Version, result.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByUserID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(walletTestColumns()))

	result, err := repo.GetByUserID(context.Background(), userID)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id").
		WithArgs(w.ID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.UserID, result.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
