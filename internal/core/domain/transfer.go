package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferStatus is the lifecycle state of a wallet-to-wallet transfer.
type TransferStatus string

const (
	// TransferStatusPending: record created, legs not yet committed.
	TransferStatusPending TransferStatus = "PENDING"
	// TransferStatusSucceeded: both legs committed.
	TransferStatusSucceeded TransferStatus = "SUCCEEDED"
	// TransferStatusFailed: debit leg never applied; no money moved.
	TransferStatusFailed TransferStatus = "FAILED"
	// TransferStatusFailedReversed: debit applied, credit failed, sender
	// compensated in full.
	TransferStatusFailedReversed TransferStatus = "FAILED_REVERSED"
	// TransferStatusReversalFailed: compensation itself failed. Requires
	// manual reconciliation; never retried automatically.
	TransferStatusReversalFailed TransferStatus = "REVERSAL_FAILED"
)

// TransferRecord groups the two ledger entries of a wallet-to-wallet move.
// It carries no balance of its own; it exists for atomicity bookkeeping.
type TransferRecord struct {
	ID                    uuid.UUID      `json:"id"`
	FromWalletID          uuid.UUID      `json:"from_wallet_id"`
	ToWalletID            uuid.UUID      `json:"to_wallet_id"`
	FromUserID            uuid.UUID      `json:"from_user_id"`
	ToUserID              uuid.UUID      `json:"to_user_id"`
	Amount                int64          `json:"amount"`
	Status                TransferStatus `json:"status"`
	DebitTransactionID    *uuid.UUID     `json:"debit_transaction_id,omitempty"`
	CreditTransactionID   *uuid.UUID     `json:"credit_transaction_id,omitempty"`
	ReversalTransactionID *uuid.UUID     `json:"reversal_transaction_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// IsTerminal reports whether the transfer reached a final state.
func (r *TransferRecord) IsTerminal() bool {
	return r.Status != TransferStatusPending
}

// MovedMoney reports whether any leg of the transfer left a lasting balance
// change that an idempotent retry must not repeat.
func (r *TransferRecord) MovedMoney() bool {
	return r.Status == TransferStatusSucceeded ||
		r.Status == TransferStatusFailedReversed ||
		r.Status == TransferStatusReversalFailed
}
