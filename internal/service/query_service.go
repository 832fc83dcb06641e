package service

import (
	"context"
	"fmt"

	"arena-ledger/config"
	"arena-ledger/internal/core/domain"
	"arena-ledger/internal/core/ports"
	"arena-ledger/pkg/apperror"
	"arena-ledger/pkg/pagetoken"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QueryServiceImpl implements ports.QueryService. Read-only: it never
// touches wallet versions or the ledger store.
type QueryServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	cfg        config.LedgerConfig
	log        zerolog.Logger
}

// NewQueryService creates a new QueryServiceImpl.
func NewQueryService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *QueryServiceImpl {
	return &QueryServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		cfg:        cfg,
		log:        log,
	}
}

// GetBalance returns the wallet's current balance and currency.
func (s *QueryServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (int64, string, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, "", apperror.InternalError(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return 0, "", apperror.ErrWalletNotFound()
	}
	return wallet.Balance, wallet.Currency, nil
}

// GetHistory returns one page of the wallet's statement, newest first,
// along with an opaque token for the next page.
func (s *QueryServiceImpl) GetHistory(ctx context.Context, q ports.HistoryQuery) ([]domain.Transaction, string, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, q.UserID)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, "", apperror.ErrWalletNotFound()
	}

	if q.DateFrom != nil && q.DateTo != nil && q.DateFrom.After(*q.DateTo) {
		return nil, "", apperror.Validation("date_from must not be after date_to")
	}

	cursor, err := pagetoken.Decode(q.PageToken)
	if err != nil {
		return nil, "", apperror.Validation("invalid page token")
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	txns, next, err := s.txRepo.List(ctx, ports.TransactionListParams{
		WalletID: wallet.ID,
		Type:     q.Type,
		Category: q.Category,
		From:     q.DateFrom,
		To:       q.DateTo,
		Cursor:   cursor,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}

	nextToken := ""
	if next != nil {
		nextToken = pagetoken.Encode(*next)
	}
	return txns, nextToken, nil
}
