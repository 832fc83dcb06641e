package postgres

import (
	"context"
	"testing"
	"time"

	"arena-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer() *domain.TransferRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.TransferRecord{
		ID:           uuid.New(),
		FromWalletID: uuid.New(),
		ToWalletID:   uuid.New(),
		FromUserID:   uuid.New(),
		ToUserID:     uuid.New(),
		Amount:       250,
		Status:       domain.TransferStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestTransferRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	rec := newTestTransfer()

	mock.ExpectExec("INSERT INTO transfer_records").
		WithArgs(rec.ID, rec.FromWalletID, rec.ToWalletID, rec.FromUserID, rec.ToUserID,
			rec.Amount, rec.Status, rec.DebitTransactionID, rec.CreditTransactionID,
			rec.ReversalTransactionID, rec.CreatedAt, rec.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	rec := newTestTransfer()
	debitID := uuid.New()
	creditID := uuid.New()
	rec.Status = domain.TransferStatusSucceeded
	rec.DebitTransactionID = &debitID
	rec.CreditTransactionID = &creditID

	mock.ExpectExec("UPDATE transfer_records").
		WithArgs(rec.Status, rec.DebitTransactionID, rec.CreditTransactionID,
			rec.ReversalTransactionID, rec.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.Update(context.Background(), rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_Update_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	rec := newTestTransfer()

	mock.ExpectExec("UPDATE transfer_records").
		WithArgs(rec.Status, rec.DebitTransactionID, rec.CreditTransactionID,
			rec.ReversalTransactionID, rec.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Update(context.Background(), rec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transfer record not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	rec := newTestTransfer()

	mock.ExpectQuery("SELECT .+ FROM transfer_records WHERE id").
		WithArgs(rec.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "from_wallet_id", "to_wallet_id", "from_user_id", "to_user_id",
			"amount", "status", "debit_transaction_id", "credit_transaction_id", "reversal_transaction_id",
			"created_at", "updated_at"}).
			AddRow(rec.ID, rec.FromWalletID, rec.ToWalletID, rec.FromUserID, rec.ToUserID,
				rec.Amount, rec.Status, rec.DebitTransactionID, rec.CreditTransactionID,
				rec.ReversalTransactionID, rec.CreatedAt, rec.UpdatedAt))

	result, err := repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, rec.Amount, result.Amount)
	assert.Equal(t, domain.TransferStatusPending, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transfer_records WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "from_wallet_id", "to_wallet_id", "from_user_id", "to_user_id",
			"amount", "status", "debit_transaction_id", "credit_transaction_id", "reversal_transaction_id",
			"created_at", "updated_at"}))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
