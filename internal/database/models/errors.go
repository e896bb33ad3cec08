package models

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgreSQL SQLSTATE codes we branch on.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// pgErrorCode extracts the SQLSTATE code from a pgdriver error, or returns
// an empty string for any other error.
func pgErrorCode(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}

	return ""
}
