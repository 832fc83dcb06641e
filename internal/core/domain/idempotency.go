package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperationKind namespaces idempotency keys so a credit, a debit and a
// transfer may reuse the same caller-supplied token without colliding.
type OperationKind string

const (
	OperationCredit   OperationKind = "credit"
	OperationDebit    OperationKind = "debit"
	OperationTransfer OperationKind = "transfer"
)

// IdempotencyRecord maps (operation kind, caller key) to the result it
// produced. Uniqueness on the pair is enforced by the ledger store at write
// time; a violation means the operation already applied and the stored
// response is returned instead.
type IdempotencyRecord struct {
	OperationKind OperationKind `json:"operation_kind"`
	Key           string        `json:"key"`
	TransactionID uuid.UUID     `json:"transaction_id"` // Transaction or transfer id
	ResponseJSON  []byte        `json:"response_json"`
	CreatedAt     time.Time     `json:"created_at"`
}

// CacheKey builds the Redis fast-path key for an idempotency record.
func CacheKey(kind OperationKind, key string) string {
	return string(kind) + ":" + key
}

// Derived leg keys for the transfer saga. Each leg of a transfer is
// individually idempotent under a key derived from the caller's token.
func DebitLegKey(key string) string    { return key + ":debit" }
func CreditLegKey(key string) string   { return key + ":credit" }
func ReversalLegKey(key string) string { return key + ":reversal" }
