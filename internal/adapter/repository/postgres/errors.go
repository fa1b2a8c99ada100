package postgres

import (
	"errors"
	"fmt"

	"github.com/isbank/ledger-core/internal/domain"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// storeErr tags an infrastructure failure as retryable-safe: nothing was
// committed when it is returned.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}
