package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique violation, optionally on a
// specific constraint. sqlite reports these only as text, which tests rely on.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if diag, ok := pkgerrors.Postgres(err); ok {
		return diag.Code == pgUniqueViolation && (constraintName == "" || diag.Constraint == constraintName)
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
