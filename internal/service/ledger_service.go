package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"arena-ledger/config"
	"arena-ledger/internal/core/domain"
	"arena-ledger/internal/core/ports"
	"arena-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService. Each credit or debit is
// applied through the ledger store under optimistic concurrency: read the
// wallet version, attempt the guarded update, retry on a version conflict
// with jittered exponential backoff.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	store      ports.LedgerStore
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	cfg        config.LedgerConfig
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	store ports.LedgerStore,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		store:      store,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		cfg:        cfg,
		log:        log,
	}
}

// CreateWallet provisions the single wallet of a user.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet := domain.NewWallet(userID, s.cfg.DefaultCurrency)
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		if errors.Is(err, domain.ErrWalletExists) {
			return nil, apperror.ErrWalletExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("user_id", userID.String()).
		Str("currency", wallet.Currency).
		Msg("wallet created")

	return wallet, nil
}

// Credit adds funds to a wallet.
func (s *LedgerServiceImpl) Credit(ctx context.Context, req ports.EntryRequest) (*domain.Transaction, error) {
	return s.apply(ctx, req, domain.OperationCredit)
}

// Debit removes funds from a wallet. Fails with LED_002 when the balance
// cannot cover the amount; that failure never consumes the idempotency key,
// so the caller may retry the same key after a top-up.
func (s *LedgerServiceImpl) Debit(ctx context.Context, req ports.EntryRequest) (*domain.Transaction, error) {
	return s.apply(ctx, req, domain.OperationDebit)
}

func (s *LedgerServiceImpl) apply(ctx context.Context, req ports.EntryRequest, kind domain.OperationKind) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	// Layer 1: Redis idempotency check
	if req.IdempotencyKey != "" {
		cached, err := s.idempCache.Get(ctx, domain.CacheKey(kind, req.IdempotencyKey))
		if err != nil {
			s.log.Warn().Err(err).Str("key", req.IdempotencyKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return unmarshalCachedTransaction(cached)
		}

		// Layer 2: DB idempotency check
		rec, err := s.idempRepo.Resolve(ctx, kind, req.IdempotencyKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if rec != nil {
			return unmarshalCachedTransaction(rec.ResponseJSON)
		}
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	// A deactivated wallet rejects debits but still accepts credits, so
	// in-flight refunds and transfer reversals can always land.
	if !wallet.Active && kind == domain.OperationDebit {
		return nil, apperror.ErrWalletInactive()
	}

	delta := req.Amount
	txType := domain.TransactionTypeCredit
	if kind == domain.OperationDebit {
		delta = -req.Amount
		txType = domain.TransactionTypeDebit
	}

	// The transaction id is fixed before the retry loop so every attempt
	// writes the same ledger entry.
	txnID := uuid.New()
	version := wallet.Version

	for attempt := 0; ; attempt++ {
		now := time.Now().UTC()
		txn := &domain.Transaction{
			ID:              txnID,
			WalletID:        wallet.ID,
			UserID:          req.UserID,
			Type:            txType,
			Amount:          req.Amount,
			Category:        req.Category,
			RelatedTo:       req.RelatedTo,
			RelatedID:       req.RelatedID,
			Status:          domain.TransactionStatusCompleted,
			TransferID:      req.TransferID,
			TransactionDate: now,
			CreatedAt:       now,
		}

		p := ports.ApplyParams{
			WalletID:        wallet.ID,
			Delta:           delta,
			ExpectedVersion: version,
			Transaction:     txn,
		}
		if req.IdempotencyKey != "" {
			p.Idempotency = &domain.IdempotencyRecord{
				OperationKind: kind,
				Key:           req.IdempotencyKey,
				CreatedAt:     now,
			}
		}

		_, err := s.store.ApplyAtomic(ctx, p)
		if err == nil {
			s.cacheResult(ctx, kind, req.IdempotencyKey, p.Idempotency, txn)
			s.log.Info().
				Str("tx_id", txn.ID.String()).
				Str("user_id", req.UserID.String()).
				Str("type", string(txType)).
				Int64("amount", req.Amount).
				Int64("balance_after", txn.BalanceAfter).
				Int("attempts", attempt+1).
				Msg("ledger entry applied")
			return txn, nil
		}

		switch {
		case errors.Is(err, domain.ErrInsufficientFunds):
			return nil, apperror.ErrInsufficientBalance()

		case errors.Is(err, domain.ErrDuplicateIdempotencyKey):
			// Lost the uniqueness race: another request with the same key
			// committed first. Serve its stored response.
			rec, rerr := s.idempRepo.Resolve(ctx, kind, req.IdempotencyKey)
			if rerr != nil || rec == nil {
				return nil, apperror.InternalError(fmt.Errorf("resolve idempotency record after conflict: %v", rerr))
			}
			return unmarshalCachedTransaction(rec.ResponseJSON)

		case errors.Is(err, domain.ErrVersionConflict):
			if attempt+1 >= s.cfg.MaxRetries {
				s.log.Warn().
					Str("user_id", req.UserID.String()).
					Int("attempts", attempt+1).
					Msg("optimistic retry budget exhausted")
				return nil, apperror.ErrConcurrentConflict()
			}
			if err := s.sleepBackoff(ctx, attempt); err != nil {
				return nil, apperror.InternalError(err)
			}
			fresh, err := s.walletRepo.GetByID(ctx, wallet.ID)
			if err != nil || fresh == nil {
				return nil, apperror.InternalError(fmt.Errorf("reload wallet: %v", err))
			}
			wallet = fresh
			version = fresh.Version

		default:
			return nil, apperror.InternalError(fmt.Errorf("apply ledger entry: %w", err))
		}
	}
}

// sleepBackoff waits before the next optimistic retry: exponential growth
// from BackoffBase, capped at BackoffCap, with full jitter.
func (s *LedgerServiceImpl) sleepBackoff(ctx context.Context, attempt int) error {
	delay := s.cfg.BackoffBase << uint(attempt)
	if delay > s.cfg.BackoffCap || delay <= 0 {
		delay = s.cfg.BackoffCap
	}
	delay = time.Duration(rand.Int63n(int64(delay) + 1))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// cacheResult writes the committed response to the Redis fast path.
// Best-effort: the durable record is already in PostgreSQL.
func (s *LedgerServiceImpl) cacheResult(ctx context.Context, kind domain.OperationKind, key string, rec *domain.IdempotencyRecord, txn *domain.Transaction) {
	if key == "" || rec == nil {
		return
	}
	body := rec.ResponseJSON
	if body == nil {
		var err error
		body, err = json.Marshal(txn)
		if err != nil {
			return
		}
	}
	if err := s.idempCache.Set(ctx, domain.CacheKey(kind, key), body, s.cfg.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

func unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transaction: %w", err))
	}
	return &txn, nil
}
