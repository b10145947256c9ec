package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a write violates a unique index
	// (user email, or a provider account already linked elsewhere)
	ErrDuplicate = errors.New("duplicate record")
)

// translateError maps driver errors onto the store sentinels
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case isDuplicateKey(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Drivers that do not implement gorm's error translator
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
