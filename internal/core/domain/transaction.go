package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// TransactionCategory names the business event behind a ledger entry.
type TransactionCategory string

const (
	CategoryBookingPayment TransactionCategory = "booking_payment"
	CategoryOrderPayment   TransactionCategory = "order_payment"
	CategoryAdPayment      TransactionCategory = "ad_payment"
	CategoryWalletRecharge TransactionCategory = "wallet_recharge"
	CategoryTransfer       TransactionCategory = "transfer"
	CategoryRefund         TransactionCategory = "refund"
	CategoryAdjustment     TransactionCategory = "adjustment"
	CategoryCommission     TransactionCategory = "commission"
)

// TransactionStatus is the terminal state of a ledger entry. Entries are
// written completed; a refund produces a new credit that references the
// original and flips it to refunded, never mutating its amount.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"
)

// RelatedTo values for the external entity that caused a transaction.
const (
	RelatedToBooking          = "booking"
	RelatedToOrder            = "order"
	RelatedToAd               = "ad"
	RelatedToWallet           = "wallet"
	RelatedToAdmin            = "admin"
	RelatedToTransferReversal = "transfer_reversal"
)

// Transaction is an immutable, append-only ledger entry. BalanceAfter is the
// wallet balance immediately after the entry was applied and always equals
// the running signed sum of the wallet's entries.
type Transaction struct {
	ID              uuid.UUID           `json:"id"`
	WalletID        uuid.UUID           `json:"wallet_id"`
	UserID          uuid.UUID           `json:"user_id"`
	Type            TransactionType     `json:"type"`
	Amount          int64               `json:"amount"` // Always positive, minor units
	BalanceAfter    int64               `json:"balance_after"`
	Category        TransactionCategory `json:"category"`
	RelatedTo       string              `json:"related_to,omitempty"`
	RelatedID       *string             `json:"related_id,omitempty"`
	Status          TransactionStatus   `json:"status"`
	TransferID      *uuid.UUID          `json:"transfer_id,omitempty"`
	TransactionDate time.Time           `json:"transaction_date"`
	CreatedAt       time.Time           `json:"created_at"`
}

// SignedAmount returns the amount with the sign implied by the entry type.
func (t *Transaction) SignedAmount() int64 {
	if t.Type == TransactionTypeDebit {
		return -t.Amount
	}
	return t.Amount
}

// IsDebit reports whether the entry decreased the balance.
func (t *Transaction) IsDebit() bool {
	return t.Type == TransactionTypeDebit
}
