package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// SheetID identifies a decoded sheet held between upload and export.
type SheetID ID

func (id SheetID) String() string { return ID(id).String() }

// NewSheetID creates a fresh sheet identifier
func NewSheetID() SheetID { return SheetID(NewID()) }

// ParseSheetID parses a string into SheetID
func ParseSheetID(s string) (SheetID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("sheet ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("sheet ID %q is not a valid uuid: %w", s, err)
	}
	return SheetID(s), nil
}
