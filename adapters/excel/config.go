package excel

// ReaderConfig holds configuration for spreadsheet decoding
type ReaderConfig struct {
	SheetName string `json:"sheet_name"` // empty selects the first sheet
	MaxRows   int    `json:"max_rows"`   // 0 means unlimited
}

// DefaultReaderConfig returns sensible defaults
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{}
}
