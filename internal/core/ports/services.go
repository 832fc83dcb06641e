package ports

import (
	"context"
	"time"

	"arena-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// --- Service Ports (Business Logic) ---

// EntryRequest holds validated input for a single credit or debit.
type EntryRequest struct {
	UserID    uuid.UUID
	Amount    int64 // Minor units, must be > 0
	Category  domain.TransactionCategory
	RelatedTo string
	RelatedID *string
	// IdempotencyKey guards against re-application on retry. Empty means no
	// replay protection — the caller must not retry blindly.
	IdempotencyKey string
	// TransferID links the entry to a transfer saga leg, when applicable.
	TransferID *uuid.UUID
}

// LedgerService is the transaction processor: it validates and applies a
// single credit or debit against one wallet.
type LedgerService interface {
	CreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	Credit(ctx context.Context, req EntryRequest) (*domain.Transaction, error)
	Debit(ctx context.Context, req EntryRequest) (*domain.Transaction, error)
}

// TransferRequest holds validated input for a wallet-to-wallet move.
type TransferRequest struct {
	FromUserID     uuid.UUID
	ToUserID       uuid.UUID
	Amount         int64
	IdempotencyKey string
}

// TransferService composes two processor calls into one all-or-nothing
// business operation with compensation on second-leg failure.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*domain.TransferRecord, error)
}

// HistoryQuery holds filters for a paginated statement read.
type HistoryQuery struct {
	UserID    uuid.UUID
	Type      *domain.TransactionType
	Category  *domain.TransactionCategory
	DateFrom  *time.Time
	DateTo    *time.Time
	PageToken string
	PageSize  int
}

// QueryService exposes balance and history without ever mutating state.
type QueryService interface {
	// GetBalance returns the current balance and currency straight from the
	// wallet row.
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, string, error)
	// GetHistory returns one page of transactions newest-first and the token
	// of the next page ("" when exhausted).
	GetHistory(ctx context.Context, q HistoryQuery) ([]domain.Transaction, string, error)
}

// TokenService handles JWT token operations for the read API.
type TokenService interface {
	Generate(service string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Service string
}

// SignatureService handles HMAC-SHA256 signing and verification for the
// mutation API.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
	BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NonceStore manages nonce uniqueness for replay attack prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, callerID string, nonce string, ttl time.Duration) (bool, error)
}
