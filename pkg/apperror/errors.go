package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet (WAL) ----

func ErrWalletNotFound() *AppError {
	return New("WAL_001", "Wallet not found", http.StatusNotFound)
}

func ErrWalletExists() *AppError {
	return New("WAL_002", "Wallet already exists for user", http.StatusConflict)
}

func ErrWalletInactive() *AppError {
	return New("WAL_003", "Wallet is deactivated", http.StatusForbidden)
}

// ---- Ledger (LED) ----

func ErrInvalidAmount() *AppError {
	return New("LED_001", "Amount must be a positive integer in minor units", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("LED_002", "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrConcurrentConflict() *AppError {
	return New("LED_003", "Wallet is being modified concurrently, retry with the same idempotency key", http.StatusConflict)
}

// ---- Transfer (TRF) ----

func ErrTransferReversed() *AppError {
	return New("TRF_001", "Transfer failed and was reversed", http.StatusUnprocessableEntity)
}

func ErrReversalFailure(err error) *AppError {
	return Wrap("TRF_002", "Transfer reversal failed, manual reconciliation required", http.StatusInternalServerError, err)
}

func ErrSelfTransfer() *AppError {
	return New("TRF_003", "Cannot transfer to the same wallet", http.StatusBadRequest)
}

// ---- Security & Authentication (SEC / AUTH) ----

func ErrInvalidAccessKey() *AppError {
	return New("SEC_001", "Invalid access key", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_002", "Invalid signature", http.StatusUnauthorized)
}

func ErrTimestampExpired() *AppError {
	return New("SEC_003", "Request timestamp expired", http.StatusForbidden)
}

func ErrNonceUsed() *AppError {
	return New("SEC_004", "Nonce has already been used", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_004-coded request validation error.
func Validation(message string) *AppError {
	return New("LED_004", message, http.StatusBadRequest)
}
