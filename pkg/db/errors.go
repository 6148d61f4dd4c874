package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err was raised by a unique constraint.
// Postgres errors are matched on SQLSTATE; other drivers fall back to the
// message text. When constraintName is provided it must appear in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		if dump := pkgerrors.Dump(err); dump.PGConstraint != constraintName {
			return false
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if pkgerrors.Dump(err).IsUniqueViolation() {
		return true
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
