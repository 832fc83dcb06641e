package handler

import (
	"context"
	"strconv"
	"time"

	"arena-ledger/internal/adapter/http/dto"
	"arena-ledger/internal/adapter/http/middleware"
	"arena-ledger/internal/core/domain"
	"arena-ledger/internal/core/ports"
	"arena-ledger/pkg/apperror"
	"arena-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet provisioning, mutations and reads.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
	querySvc  ports.QueryService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService, querySvc ports.QueryService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc, querySvc: querySvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a UUID"))
		return
	}

	wallet, err := h.ledgerSvc.CreateWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.WalletResponse{
		ID:        wallet.ID.String(),
		UserID:    wallet.UserID.String(),
		Currency:  wallet.Currency,
		Balance:   wallet.Balance,
		Active:    wallet.Active,
		CreatedAt: wallet.CreatedAt.Format(time.RFC3339),
	})
}

// Credit handles POST /api/v1/wallets/:user_id/credit.
func (h *WalletHandler) Credit(c *gin.Context) {
	h.applyEntry(c, h.ledgerSvc.Credit)
}

// Debit handles POST /api/v1/wallets/:user_id/debit.
func (h *WalletHandler) Debit(c *gin.Context) {
	h.applyEntry(c, h.ledgerSvc.Debit)
}

func (h *WalletHandler) applyEntry(c *gin.Context, apply func(context.Context, ports.EntryRequest) (*domain.Transaction, error)) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a UUID"))
		return
	}

	var req dto.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := apply(c.Request.Context(), ports.EntryRequest{
		UserID:         userID,
		Amount:         req.Amount,
		Category:       domain.TransactionCategory(req.Category),
		RelatedTo:      req.RelatedTo,
		RelatedID:      req.RelatedID,
		IdempotencyKey: c.GetString(middleware.CtxIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// GetBalance handles GET /api/v1/wallets/:user_id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a UUID"))
		return
	}

	balance, currency, err := h.querySvc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		UserID:   userID.String(),
		Balance:  balance,
		Currency: currency,
	})
}

// GetHistory handles GET /api/v1/wallets/:user_id/transactions.
func (h *WalletHandler) GetHistory(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a UUID"))
		return
	}

	q := ports.HistoryQuery{
		UserID:    userID,
		PageToken: c.Query("page_token"),
	}

	if v := c.Query("type"); v != "" {
		t := domain.TransactionType(v)
		if t != domain.TransactionTypeCredit && t != domain.TransactionTypeDebit {
			response.Error(c, apperror.Validation("type must be CREDIT or DEBIT"))
			return
		}
		q.Type = &t
	}
	if v := c.Query("category"); v != "" {
		cat := domain.TransactionCategory(v)
		q.Category = &cat
	}
	if v := c.Query("date_from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperror.Validation("date_from must be RFC 3339"))
			return
		}
		q.DateFrom = &ts
	}
	if v := c.Query("date_to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperror.Validation("date_to must be RFC 3339"))
			return
		}
		q.DateTo = &ts
	}
	if v := c.Query("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			response.Error(c, apperror.Validation("page_size must be a positive integer"))
			return
		}
		q.PageSize = size
	}

	txns, nextToken, err := h.querySvc.GetHistory(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	response.OK(c, dto.HistoryResponse{
		Items:         items,
		NextPageToken: nextToken,
	})
}

// toTransactionResponse converts domain.Transaction to its DTO.
func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:              tx.ID.String(),
		WalletID:        tx.WalletID.String(),
		UserID:          tx.UserID.String(),
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		BalanceAfter:    tx.BalanceAfter,
		Category:        string(tx.Category),
		RelatedTo:       tx.RelatedTo,
		RelatedID:       tx.RelatedID,
		Status:          string(tx.Status),
		TransactionDate: tx.TransactionDate.Format(time.RFC3339),
	}
	if tx.TransferID != nil {
		s := tx.TransferID.String()
		resp.TransferID = &s
	}
	return resp
}
