package repositories

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// pqConstraint returns the error code and constraint name of a *pq.Error.
func pqConstraint(err error) (code string, constraint string, ok bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", "", false
	}
	return string(pqErr.Code), pqErr.Constraint, true
}

func executorOr(exec SQLExecutor, fallback SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return fallback
}
