package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is the per-user balance aggregate. One wallet per user, created at
// account creation, never deleted (only deactivated). Balance is held in
// minor currency units and must stay non-negative. The wallet row is mutated
// exclusively through the ledger store's atomic apply; Version is the
// optimistic concurrency counter guarding that update.
type Wallet struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Currency          string     `json:"currency"`
	Balance           int64      `json:"balance"` // Minor units (e.g. paise)
	TotalCredits      int64      `json:"total_credits"`
	TotalDebits       int64      `json:"total_debits"`
	Version           int64      `json:"-"`
	Active            bool       `json:"active"`
	LastTransactionAt *time.Time `json:"last_transaction_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewWallet returns a zero-balance active wallet for the given user.
func NewWallet(userID uuid.UUID, currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Currency:  currency,
		Balance:   0,
		Version:   1,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanDebit reports whether a debit of amount would keep the balance
// non-negative.
func (w *Wallet) CanDebit(amount int64) bool {
	return w.Balance >= amount
}
