package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LED_002", "Insufficient wallet balance", http.StatusPaymentRequired),
			expected: "[LED_002] Insufficient wallet balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("LED_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestWalletErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"WalletNotFound", ErrWalletNotFound(), "WAL_001", 404},
		{"WalletExists", ErrWalletExists(), "WAL_002", 409},
		{"WalletInactive", ErrWalletInactive(), "WAL_003", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidAmount", ErrInvalidAmount(), "LED_001", 400},
		{"InsufficientBalance", ErrInsufficientBalance(), "LED_002", 402},
		{"ConcurrentConflict", ErrConcurrentConflict(), "LED_003", 409},
		{"Validation", Validation("bad field"), "LED_004", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestTransferErrors(t *testing.T) {
	assert.Equal(t, "TRF_001", ErrTransferReversed().Code)
	assert.Equal(t, 422, ErrTransferReversed().HTTPStatus)
	assert.Equal(t, "TRF_003", ErrSelfTransfer().Code)

	inner := fmt.Errorf("credit leg timed out")
	rev := ErrReversalFailure(inner)
	assert.Equal(t, "TRF_002", rev.Code)
	assert.Equal(t, 500, rev.HTTPStatus)
	assert.True(t, errors.Is(rev, inner))
}

func TestSecurityErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidAccessKey", ErrInvalidAccessKey(), "SEC_001", 401},
		{"InvalidSignature", ErrInvalidSignature(), "SEC_002", 401},
		{"TimestampExpired", ErrTimestampExpired(), "SEC_003", 403},
		{"NonceUsed", ErrNonceUsed(), "SEC_004", 403},
		{"InvalidToken", ErrInvalidToken(), "AUTH_001", 401},
		{"RateLimit", ErrRateLimitExceeded(), "RATE_001", 429},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}
