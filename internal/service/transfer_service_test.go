package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"arena-ledger/internal/core/domain"
	"arena-ledger/internal/core/ports"
	"arena-ledger/internal/core/ports/mocks"
	"arena-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type transferTestDeps struct {
	svc          *TransferServiceImpl
	ledger       *mocks.MockLedgerService
	walletRepo   *mocks.MockWalletRepository
	transferRepo *mocks.MockTransferRepository
	idempRepo    *mocks.MockIdempotencyRepository
	idempCache   *mocks.MockIdempotencyCache
	ctrl         *gomock.Controller
}

func setupTransferService(t *testing.T) *transferTestDeps {
	ctrl := gomock.NewController(t)
	d := &transferTestDeps{
		ledger:       mocks.NewMockLedgerService(ctrl),
		walletRepo:   mocks.NewMockWalletRepository(ctrl),
		transferRepo: mocks.NewMockTransferRepository(ctrl),
		idempRepo:    mocks.NewMockIdempotencyRepository(ctrl),
		idempCache:   mocks.NewMockIdempotencyCache(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewTransferService(
		d.ledger, d.walletRepo, d.transferRepo, d.idempRepo, d.idempCache,
		testLedgerConfig(), zerolog.Nop(),
	)
	return d
}

func transferReq(key string) ports.TransferRequest {
	return ports.TransferRequest{
		FromUserID:     uuid.New(),
		ToUserID:       uuid.New(),
		Amount:         300,
		IdempotencyKey: key,
	}
}

func (d *transferTestDeps) expectWallets(req ports.TransferRequest, from, to *domain.Wallet) {
	d.walletRepo.EXPECT().GetByUserID(gomock.Any(), req.FromUserID).Return(from, nil)
	if from != nil {
		d.walletRepo.EXPECT().GetByUserID(gomock.Any(), req.ToUserID).Return(to, nil)
	}
}

func (d *transferTestDeps) expectNoPriorOutcome(key string) {
	d.idempCache.EXPECT().Get(gomock.Any(), domain.CacheKey(domain.OperationTransfer, key)).Return(nil, nil)
	d.idempRepo.EXPECT().Resolve(gomock.Any(), domain.OperationTransfer, key).Return(nil, nil)
}

func TestTransferService_Transfer_Success(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := transferReq("trf-1")
	from := activeWallet(req.FromUserID, 1000, 2)
	to := activeWallet(req.ToUserID, 0, 1)

	d.expectNoPriorOutcome("trf-1")
	d.expectWallets(req, from, to)
	d.transferRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	debitTxn := &domain.Transaction{ID: uuid.New(), Type: domain.TransactionTypeDebit, Amount: 300, BalanceAfter: 700}
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, er ports.EntryRequest) (*domain.Transaction, error) {
			assert.Equal(t, req.FromUserID, er.UserID)
			assert.Equal(t, "trf-1:debit", er.IdempotencyKey)
			assert.Equal(t, domain.CategoryTransfer, er.Category)
			require.NotNil(t, er.TransferID)
			return debitTxn, nil
		})

	creditTxn := &domain.Transaction{ID: uuid.New(), Type: domain.TransactionTypeCredit, Amount: 300, BalanceAfter: 300}
	d.ledger.EXPECT().Credit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, er ports.EntryRequest) (*domain.Transaction, error) {
			assert.Equal(t, req.ToUserID, er.UserID)
			assert.Equal(t, "trf-1:credit", er.IdempotencyKey)
			return creditTxn, nil
		})

	d.transferRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	d.idempRepo.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil)
	d.idempCache.EXPECT().Set(gomock.Any(), domain.CacheKey(domain.OperationTransfer, "trf-1"), gomock.Any(), time.Hour).Return(nil)

	rec, err := d.svc.Transfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusSucceeded, rec.Status)
	assert.Equal(t, &debitTxn.ID, rec.DebitTransactionID)
	assert.Equal(t, &creditTxn.ID, rec.CreditTransactionID)
	assert.Nil(t, rec.ReversalTransactionID)
}

func TestTransferService_Transfer_InvalidAmount(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := transferReq("")
	req.Amount = 0

	_, err := d.svc.Transfer(context.Background(), req)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LED_001", appErr.Code)
}

func TestTransferService_Transfer_SelfTransfer(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	userID := uuid.New()
	_, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		FromUserID: userID,
		ToUserID:   userID,
		Amount:     100,
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TRF_003", appErr.Code)
}

func TestTransferService_Transfer_SenderNotFound(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := transferReq("")
	d.expectWallets(req, nil, nil)

	_, err := d.svc.Transfer(context.Background(), req)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)
}

func TestTransferService_Transfer_DebitFails_KeyNotConsumed(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := transferReq("trf-2")
	from := activeWallet(req.FromUserID, 100, 2)
	to := activeWallet(req.ToUserID, 0, 1)

	d.expectNoPriorOutcome("trf-2")
	d.expectWallets(req, from, to)
	d.transferRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientBalance())

	var failed *domain.TransferRecord
	d.transferRepo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *domain.TransferRecord) error {
			failed = rec
			return nil
		})
	// No Register call: the transfer-level key stays available for retry.

	_, err := d.svc.Transfer(context.Background(), req)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LED_002", appErr.Code)
	require.NotNil(t, failed)
	assert.Equal(t, domain.TransferStatusFailed, failed.Status)
}

func TestTransferService_Transfer_CreditFails_Reversed(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := transferReq("trf-3")
	from := activeWallet(req.FromUserID, 1000, 2)
	to := activeWallet(req.ToUserID, 0, 1)

	d.expectNoPriorOutcome("trf-3")
	d.expectWallets(req, from, to)
	d.transferRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	debitTxn := &domain.Transaction{ID: uuid.New(), BalanceAfter: 700}
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).Return(debitTxn, nil)
	d.ledger.EXPECT().Credit(gomock.Any(), gomock.Any()).Return(nil, apperror.InternalError(assert.AnError))

	reversalTxn := &domain.Transaction{ID: uuid.New(), BalanceAfter: 1000}
	d.ledger.EXPECT().Credit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, er ports.EntryRequest) (*domain.Transaction, error) {
			assert.Equal(t, req.FromUserID, er.UserID)
			assert.Equal(t, "trf-3:reversal", er.IdempotencyKey)
			assert.Equal(t, domain.CategoryAdjustment, er.Category)
			assert.Equal(t, domain.RelatedToTransferReversal, er.RelatedTo)
			return reversalTxn, nil
		})

	var final *domain.TransferRecord
	d.transferRepo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *domain.TransferRecord) error {
			final = rec
			return nil
		})
	d.idempRepo.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil)
	d.idempCache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := d.svc.Transfer(context.Background(), req)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TRF_001", appErr.Code)
	require.NotNil(t, final)
	assert.Equal(t, domain.TransferStatusFailedReversed, final.Status)
	assert.Equal(t, &reversalTxn.ID, final.ReversalTransactionID)
}

func TestTransferService_Transfer_ReversalFails(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := transferReq("trf-4")
	from := activeWallet(req.FromUserID, 1000, 2)
	to := activeWallet(req.ToUserID, 0, 1)

	d.expectNoPriorOutcome("trf-4")
	d.expectWallets(req, from, to)
	d.transferRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	debitTxn := &domain.Transaction{ID: uuid.New()}
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).Return(debitTxn, nil)
	d.ledger.EXPECT().Credit(gomock.Any(), gomock.Any()).Return(nil, apperror.InternalError(assert.AnError)).Times(2)

	var final *domain.TransferRecord
	d.transferRepo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *domain.TransferRecord) error {
			final = rec
			return nil
		})
	d.idempRepo.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil)
	d.idempCache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := d.svc.Transfer(context.Background(), req)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TRF_002", appErr.Code)
	require.NotNil(t, final)
	assert.Equal(t, domain.TransferStatusReversalFailed, final.Status)
}

func TestTransferService_Transfer_ReplaySucceeded(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := transferReq("trf-5")
	prior := &domain.TransferRecord{
		ID:     uuid.New(),
		Amount: 300,
		Status: domain.TransferStatusSucceeded,
	}
	body, err := json.Marshal(prior)
	require.NoError(t, err)

	d.idempCache.EXPECT().Get(gomock.Any(), domain.CacheKey(domain.OperationTransfer, "trf-5")).Return(body, nil)

	rec, err := d.svc.Transfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, prior.ID, rec.ID)
	assert.Equal(t, domain.TransferStatusSucceeded, rec.Status)
}

func TestTransferService_Transfer_ReplayReversed(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := transferReq("trf-6")
	prior := &domain.TransferRecord{ID: uuid.New(), Status: domain.TransferStatusFailedReversed}
	body, err := json.Marshal(prior)
	require.NoError(t, err)

	d.idempCache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	d.idempRepo.EXPECT().Resolve(gomock.Any(), domain.OperationTransfer, "trf-6").
		Return(&domain.IdempotencyRecord{Key: "trf-6", ResponseJSON: body}, nil)

	_, err = d.svc.Transfer(context.Background(), req)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TRF_001", appErr.Code)
}

func TestTransferService_Transfer_InactiveSender(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := transferReq("")
	from := activeWallet(req.FromUserID, 1000, 2)
	from.Active = false
	to := activeWallet(req.ToUserID, 0, 1)

	d.expectWallets(req, from, to)

	_, err := d.svc.Transfer(context.Background(), req)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_003", appErr.Code)
}
