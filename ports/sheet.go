package ports

import (
	"context"
	"io"

	"adherents/domain/core"
	"adherents/domain/membership"
)

// SheetDecoder turns an uploaded spreadsheet or CSV into header->value rows
type SheetDecoder interface {
	// Decode reads one sheet; filename selects the format by extension
	Decode(ctx context.Context, filename string, r io.Reader) (*membership.SheetData, error)
}

// SheetCache holds decoded sheets between upload and export
type SheetCache interface {
	Put(sheet *membership.SheetData) core.SheetID
	Get(id core.SheetID) (*membership.SheetData, error)
	Delete(id core.SheetID)
}
