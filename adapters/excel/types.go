package excel

import (
	"path/filepath"
	"strings"
)

// FileFormat identifies how an upload is decoded
type FileFormat string

const (
	FormatXLSX    FileFormat = "xlsx"
	FormatCSV     FileFormat = "csv"
	FormatUnknown FileFormat = ""
)

// DetectFormat picks the decoder from the file extension
func DetectFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX
	case ".csv", ".txt":
		return FormatCSV
	default:
		return FormatUnknown
	}
}
