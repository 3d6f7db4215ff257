package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound           = errors.New("resource not found")
	ErrSheetNotFound      = fmt.Errorf("%w: sheet", ErrNotFound)
	ErrPreferenceNotFound = fmt.Errorf("%w: mapping preference", ErrNotFound)

	ErrUnreadableFile    = errors.New("file could not be decoded")
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrUnreadableFile)
	ErrIncompleteMapping = errors.New("column mapping is incomplete")
	ErrNoRows            = errors.New("no rows loaded")
)

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsExportRefused reports errors that block an export without being a data problem
func IsExportRefused(err error) bool {
	return errors.Is(err, ErrIncompleteMapping) || errors.Is(err, ErrNoRows)
}
