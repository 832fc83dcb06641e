package service

import (
	"context"
	"testing"
	"time"

	"arena-ledger/internal/core/domain"
	"arena-ledger/internal/core/ports"
	"arena-ledger/internal/core/ports/mocks"
	"arena-ledger/pkg/apperror"
	"arena-ledger/pkg/pagetoken"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type queryTestDeps struct {
	svc        *QueryServiceImpl
	walletRepo *mocks.MockWalletRepository
	txRepo     *mocks.MockTransactionRepository
	ctrl       *gomock.Controller
}

func setupQueryService(t *testing.T) *queryTestDeps {
	ctrl := gomock.NewController(t)
	d := &queryTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewQueryService(d.walletRepo, d.txRepo, testLedgerConfig(), zerolog.Nop())
	return d
}

func TestQueryService_GetBalance(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	userID := uuid.New()
	wallet := activeWallet(userID, 4200, 9)
	d.walletRepo.EXPECT().GetByUserID(gomock.Any(), userID).Return(wallet, nil)

	balance, currency, err := d.svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4200), balance)
	assert.Equal(t, "INR", currency)
}

func TestQueryService_GetBalance_WalletNotFound(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	userID := uuid.New()
	d.walletRepo.EXPECT().GetByUserID(gomock.Any(), userID).Return(nil, nil)

	_, _, err := d.svc.GetBalance(context.Background(), userID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)
}

func TestQueryService_GetHistory_FirstPage(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	userID := uuid.New()
	wallet := activeWallet(userID, 500, 3)
	now := time.Now().UTC()
	txns := []domain.Transaction{
		{ID: uuid.New(), WalletID: wallet.ID, TransactionDate: now},
		{ID: uuid.New(), WalletID: wallet.ID, TransactionDate: now.Add(-time.Minute)},
	}
	next := &pagetoken.Cursor{Date: txns[1].TransactionDate, ID: txns[1].ID}

	d.walletRepo.EXPECT().GetByUserID(gomock.Any(), userID).Return(wallet, nil)
	d.txRepo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p ports.TransactionListParams) ([]domain.Transaction, *pagetoken.Cursor, error) {
			assert.Equal(t, wallet.ID, p.WalletID)
			assert.Nil(t, p.Cursor)
			assert.Equal(t, 2, p.PageSize)
			return txns, next, nil
		})

	result, token, err := d.svc.GetHistory(context.Background(), ports.HistoryQuery{
		UserID:   userID,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Len(t, result, 2)
	require.NotEmpty(t, token)

	// The token round-trips to the cursor of the last returned row.
	decoded, err := pagetoken.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, next.ID, decoded.ID)
}

func TestQueryService_GetHistory_DefaultAndMaxPageSize(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	userID := uuid.New()
	wallet := activeWallet(userID, 0, 1)

	d.walletRepo.EXPECT().GetByUserID(gomock.Any(), userID).Return(wallet, nil).Times(2)
	d.txRepo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p ports.TransactionListParams) ([]domain.Transaction, *pagetoken.Cursor, error) {
			assert.Equal(t, 20, p.PageSize)
			return nil, nil, nil
		})
	d.txRepo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p ports.TransactionListParams) ([]domain.Transaction, *pagetoken.Cursor, error) {
			assert.Equal(t, 100, p.PageSize)
			return nil, nil, nil
		})

	_, token, err := d.svc.GetHistory(context.Background(), ports.HistoryQuery{UserID: userID})
	require.NoError(t, err)
	assert.Empty(t, token)

	_, _, err = d.svc.GetHistory(context.Background(), ports.HistoryQuery{UserID: userID, PageSize: 5000})
	require.NoError(t, err)
}

func TestQueryService_GetHistory_InvalidToken(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	userID := uuid.New()
	wallet := activeWallet(userID, 0, 1)
	d.walletRepo.EXPECT().GetByUserID(gomock.Any(), userID).Return(wallet, nil)

	_, _, err := d.svc.GetHistory(context.Background(), ports.HistoryQuery{
		UserID:    userID,
		PageToken: "not-a-token!!!",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LED_004", appErr.Code)
}

func TestQueryService_GetHistory_InvertedDateRange(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	userID := uuid.New()
	wallet := activeWallet(userID, 0, 1)
	d.walletRepo.EXPECT().GetByUserID(gomock.Any(), userID).Return(wallet, nil)

	now := time.Now().UTC()
	earlier := now.Add(-time.Hour)
	_, _, err := d.svc.GetHistory(context.Background(), ports.HistoryQuery{
		UserID:   userID,
		DateFrom: &now,
		DateTo:   &earlier,
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LED_004", appErr.Code)
}
