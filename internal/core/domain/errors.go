package domain

import "errors"

// Storage-level sentinel errors. The service layer translates these into the
// caller-facing apperror taxonomy; VersionConflict additionally drives the
// optimistic retry loop and is never surfaced directly.
var (
	ErrWalletExists            = errors.New("wallet already exists for user")
	ErrVersionConflict         = errors.New("wallet version conflict")
	ErrInsufficientFunds       = errors.New("insufficient wallet balance")
	ErrDuplicateTransaction    = errors.New("transaction id already recorded")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already registered")
)
