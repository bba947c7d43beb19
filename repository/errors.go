// Package repository persists interns, coordinators, templates and the
// activity log on top of gorm.
package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyExists     = errors.New("record already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInUse             = errors.New("record is still referenced")
)

// translate maps driver errors onto the package sentinels. Connections are
// opened with TranslateError, but drivers without a translator still report
// unique violations as plain text.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return ErrAlreadyExists
	}
	return err
}
