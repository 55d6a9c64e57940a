package database

import (
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE codes the repositories translate into domain errors.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
	CodeExclusionViolation  = "23P01"
	CodeNumericOutOfRange   = "22003"
)

// PQError unwraps err into a *pq.Error when possible.
func PQError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// HasCode reports whether err is a postgres error with the given SQLSTATE.
func HasCode(err error, code string) bool {
	pqErr, ok := PQError(err)
	return ok && string(pqErr.Code) == code
}

// ConstraintName returns the violated constraint, or "" for other errors.
func ConstraintName(err error) string {
	if pqErr, ok := PQError(err); ok {
		return pqErr.Constraint
	}
	return ""
}
