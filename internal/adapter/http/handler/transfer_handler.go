package handler

import (
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

// TransferHandler handles wallet-to-wallet transfers.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Transfer handles POST /api/v1/transfers.
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	fromUserID, err := uuid.Parse(req.FromUserID)
	if err != nil {
		response.Error(c, apperror.Validation("from_user_id must be a UUID"))
		return
	}
	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		response.Error(c, apperror.Validation("to_user_id must be a UUID"))
		return
	}

	rec, err := h.transferSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		FromUserID:     fromUserID,
		ToUserID:       toUserID,
		Amount:         req.Amount,
		IdempotencyKey: c.GetString(middleware.CtxIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransferResponse(rec))
}

// toTransferResponse converts domain.TransferRecord to its DTO.
func toTransferResponse(rec *domain.TransferRecord) dto.TransferResponse {
	resp := dto.TransferResponse{
		ID:         rec.ID.String(),
		FromUserID: rec.FromUserID.String(),
		ToUserID:   rec.ToUserID.String(),
		Amount:     rec.Amount,
		Status:     string(rec.Status),
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.DebitTransactionID != nil {
		resp.DebitTransactionID = rec.DebitTransactionID.String()
	}
	if rec.CreditTransactionID != nil {
		resp.CreditTransactionID = rec.CreditTransactionID.String()
	}
	return resp
}
