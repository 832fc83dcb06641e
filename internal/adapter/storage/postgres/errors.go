package postgres

import (
	"errors"
	"strings"

	"arena-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// mapUniqueViolation translates a PostgreSQL unique-constraint violation
// into the matching domain sentinel. Returns nil when err is not a unique
// violation.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "idempotency"):
		return domain.ErrDuplicateIdempotencyKey
	case strings.Contains(pgErr.ConstraintName, "user_id"):
		return domain.ErrWalletExists
	default:
		return domain.ErrDuplicateTransaction
	}
}
