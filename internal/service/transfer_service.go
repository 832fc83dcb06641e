package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"arena-ledger/config"
	"arena-ledger/internal/core/domain"
	"arena-ledger/internal/core/ports"
	"arena-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService as a two-leg saga:
// debit the sender, credit the recipient, and on a second-leg failure apply
// a compensating credit back to the sender. Each leg is an independent
// ledger entry guarded by a derived idempotency key, so a crashed or
// retried transfer never double-applies a leg.
type TransferServiceImpl struct {
	ledger       ports.LedgerService
	walletRepo   ports.WalletRepository
	transferRepo ports.TransferRepository
	idempRepo    ports.IdempotencyRepository
	idempCache   ports.IdempotencyCache
	cfg          config.LedgerConfig
	log          zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	ledger ports.LedgerService,
	walletRepo ports.WalletRepository,
	transferRepo ports.TransferRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		ledger:       ledger,
		walletRepo:   walletRepo,
		transferRepo: transferRepo,
		idempRepo:    idempRepo,
		idempCache:   idempCache,
		cfg:          cfg,
		log:          log,
	}
}

// Transfer moves funds between two user wallets. The outcome is
// all-or-nothing from the caller's point of view: either both ledger
// entries exist, or the sender's balance is restored.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.TransferRecord, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.FromUserID == req.ToUserID {
		return nil, apperror.ErrSelfTransfer()
	}

	// Transfer-level idempotency: a key that reached a money-moving terminal
	// state is replayed from the stored outcome, never re-executed.
	if req.IdempotencyKey != "" {
		if rec, err := s.resolveExisting(ctx, req.IdempotencyKey); err != nil || rec != nil {
			if err != nil {
				return nil, err
			}
			return s.replayOutcome(rec)
		}
	}

	from, err := s.walletRepo.GetByUserID(ctx, req.FromUserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load sender wallet: %w", err))
	}
	if from == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	to, err := s.walletRepo.GetByUserID(ctx, req.ToUserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load recipient wallet: %w", err))
	}
	if to == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if !from.Active {
		return nil, apperror.ErrWalletInactive()
	}

	now := time.Now().UTC()
	rec := &domain.TransferRecord{
		ID:           uuid.New(),
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		FromUserID:   req.FromUserID,
		ToUserID:     req.ToUserID,
		Amount:       req.Amount,
		Status:       domain.TransferStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.transferRepo.Create(ctx, rec); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transfer record: %w", err))
	}

	transferRef := rec.ID.String()

	// Leg 1: debit sender. A failure here means no money moved; the
	// transfer-level key stays unconsumed so the caller can retry after a
	// top-up with the same key.
	debitTxn, err := s.ledger.Debit(ctx, ports.EntryRequest{
		UserID:         req.FromUserID,
		Amount:         req.Amount,
		Category:       domain.CategoryTransfer,
		RelatedTo:      domain.RelatedToWallet,
		RelatedID:      &transferRef,
		IdempotencyKey: legKey(req.IdempotencyKey, domain.DebitLegKey),
		TransferID:     &rec.ID,
	})
	if err != nil {
		rec.Status = domain.TransferStatusFailed
		s.updateRecord(ctx, rec)
		return nil, err
	}
	rec.DebitTransactionID = &debitTxn.ID

	// Leg 2: credit recipient.
	creditTxn, err := s.ledger.Credit(ctx, ports.EntryRequest{
		UserID:         req.ToUserID,
		Amount:         req.Amount,
		Category:       domain.CategoryTransfer,
		RelatedTo:      domain.RelatedToWallet,
		RelatedID:      &transferRef,
		IdempotencyKey: legKey(req.IdempotencyKey, domain.CreditLegKey),
		TransferID:     &rec.ID,
	})
	if err != nil {
		return nil, s.compensate(ctx, rec, req, transferRef, err)
	}
	rec.CreditTransactionID = &creditTxn.ID

	rec.Status = domain.TransferStatusSucceeded
	s.updateRecord(ctx, rec)
	s.finalize(ctx, req.IdempotencyKey, rec)

	s.log.Info().
		Str("transfer_id", rec.ID.String()).
		Str("from_user_id", req.FromUserID.String()).
		Str("to_user_id", req.ToUserID.String()).
		Int64("amount", req.Amount).
		Msg("transfer completed")

	return rec, nil
}

// compensate credits the debited amount back to the sender after the credit
// leg failed.
func (s *TransferServiceImpl) compensate(ctx context.Context, rec *domain.TransferRecord, req ports.TransferRequest, transferRef string, cause error) error {
	s.log.Warn().
		Err(cause).
		Str("transfer_id", rec.ID.String()).
		Msg("credit leg failed, reversing debit")

	reversalTxn, rerr := s.ledger.Credit(ctx, ports.EntryRequest{
		UserID:         req.FromUserID,
		Amount:         req.Amount,
		Category:       domain.CategoryAdjustment,
		RelatedTo:      domain.RelatedToTransferReversal,
		RelatedID:      &transferRef,
		IdempotencyKey: legKey(req.IdempotencyKey, domain.ReversalLegKey),
		TransferID:     &rec.ID,
	})
	if rerr != nil {
		rec.Status = domain.TransferStatusReversalFailed
		s.updateRecord(ctx, rec)
		s.finalize(ctx, req.IdempotencyKey, rec)
		s.log.Error().
			Err(rerr).
			Str("transfer_id", rec.ID.String()).
			Str("from_user_id", req.FromUserID.String()).
			Int64("amount", req.Amount).
			Msg("transfer reversal failed, manual reconciliation required")
		return apperror.ErrReversalFailure(rerr)
	}

	rec.ReversalTransactionID = &reversalTxn.ID
	rec.Status = domain.TransferStatusFailedReversed
	s.updateRecord(ctx, rec)
	s.finalize(ctx, req.IdempotencyKey, rec)
	return apperror.ErrTransferReversed()
}

// resolveExisting checks both idempotency layers for a prior outcome of the
// given transfer key.
func (s *TransferServiceImpl) resolveExisting(ctx context.Context, key string) (*domain.TransferRecord, error) {
	cached, err := s.idempCache.Get(ctx, domain.CacheKey(domain.OperationTransfer, key))
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalTransferRecord(cached)
	}

	rec, err := s.idempRepo.Resolve(ctx, domain.OperationTransfer, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if rec == nil {
		return nil, nil
	}
	return unmarshalTransferRecord(rec.ResponseJSON)
}

// replayOutcome maps a stored terminal transfer back onto the error contract
// of the original call, so a retry observes the same result.
func (s *TransferServiceImpl) replayOutcome(rec *domain.TransferRecord) (*domain.TransferRecord, error) {
	switch rec.Status {
	case domain.TransferStatusSucceeded:
		return rec, nil
	case domain.TransferStatusFailedReversed:
		return nil, apperror.ErrTransferReversed()
	case domain.TransferStatusReversalFailed:
		return nil, apperror.ErrReversalFailure(errors.New("previous attempt left an unreversed debit"))
	default:
		return rec, nil
	}
}

// finalize registers the transfer-level idempotency key. Only terminal
// outcomes that moved money are registered; a pre-debit failure leaves the
// key unconsumed.
func (s *TransferServiceImpl) finalize(ctx context.Context, key string, rec *domain.TransferRecord) {
	if key == "" || !rec.MovedMoney() {
		return
	}
	body, err := json.Marshal(rec)
	if err != nil {
		s.log.Error().Err(err).Str("transfer_id", rec.ID.String()).Msg("failed to marshal transfer outcome")
		return
	}
	idemRec := &domain.IdempotencyRecord{
		OperationKind: domain.OperationTransfer,
		Key:           key,
		TransactionID: rec.ID,
		ResponseJSON:  body,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.idempRepo.Register(ctx, idemRec); err != nil && !errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
		s.log.Error().Err(err).Str("transfer_id", rec.ID.String()).Msg("failed to register transfer idempotency record")
	}
	if err := s.idempCache.Set(ctx, domain.CacheKey(domain.OperationTransfer, key), body, s.cfg.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache transfer outcome in redis")
	}
}

func (s *TransferServiceImpl) updateRecord(ctx context.Context, rec *domain.TransferRecord) {
	rec.UpdatedAt = time.Now().UTC()
	if err := s.transferRepo.Update(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("transfer_id", rec.ID.String()).Msg("failed to update transfer record")
	}
}

// legKey derives a per-leg idempotency key, or none when the caller sent no
// transfer key.
func legKey(key string, derive func(string) string) string {
	if key == "" {
		return ""
	}
	return derive(key)
}

func unmarshalTransferRecord(data []byte) (*domain.TransferRecord, error) {
	var rec domain.TransferRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transfer: %w", err))
	}
	return &rec, nil
}
