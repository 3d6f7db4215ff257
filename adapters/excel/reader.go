package excel

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"adherents/domain/core"
	"adherents/domain/membership"
	"adherents/internal"
)

const emptyHeader = "__EMPTY"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DataReader decodes Excel and CSV files into header->value rows.
// Numeric spreadsheet cells become float64, text cells stay strings and
// empty cells are left out of the row.
type DataReader struct {
	config ReaderConfig
	logger *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(config ReaderConfig, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{config: config, logger: logger.With("DataReader")}
}

// ReadFile decodes the file at path
func (r *DataReader) ReadFile(ctx context.Context, path string) (*membership.SheetData, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: file not found: %s", core.ErrUnreadableFile, path)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableFile, err)
	}
	defer file.Close()

	return r.Decode(ctx, path, file)
}

// Decode reads the first (or configured) sheet of an upload
func (r *DataReader) Decode(ctx context.Context, filename string, src io.Reader) (*membership.SheetData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := DetectFormat(filename)
	r.logger.Info("Starting to read %s file: %s", format, filename)

	switch format {
	case FormatCSV:
		return r.readCSVData(src)
	case FormatXLSX:
		return r.readExcelData(src)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, filename)
	}
}

// readExcelData reads raw cell values so that dates arrive as serials
func (r *DataReader) readExcelData(src io.Reader) (*membership.SheetData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", core.ErrUnreadableFile, err)
	}
	defer f.Close()

	sheet := r.config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrUnreadableFile)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", core.ErrUnreadableFile, sheet, err)
	}
	r.logger.Debug("Sheet %q read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no header row", core.ErrUnreadableFile, sheet)
	}

	cellValue := func(rowIdx, colIdx int, raw string) interface{} {
		ref, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
		if err != nil {
			return raw
		}
		cellType, err := f.GetCellType(sheet, ref)
		if err != nil {
			return raw
		}
		switch cellType {
		case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				return n
			}
		}
		return raw
	}

	return r.processRows(sheet, rows, cellValue)
}

// readCSVData reads CSV data, sniffing ';' or ',' as delimiter
func (r *DataReader) readCSVData(src io.Reader) (*membership.SheetData, error) {
	buffered := bufio.NewReader(src)
	if bom, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		buffered.Discard(len(utf8BOM))
	}

	firstLine, _ := buffered.Peek(4096)
	reader := csv.NewReader(buffered)
	reader.Comma = sniffDelimiter(firstLine)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV file: %v", core.ErrUnreadableFile, err)
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: CSV file has no header row", core.ErrUnreadableFile)
	}

	return r.processRows("", rows, func(_, _ int, raw string) interface{} { return raw })
}

// processRows converts raw rows into SheetData. Blank rows are skipped.
func (r *DataReader) processRows(name string, rows [][]string, value func(rowIdx, colIdx int, raw string) interface{}) (*membership.SheetData, error) {
	headers := uniqueHeaders(rows[0])

	var dataRows []membership.RawRow
	for i := 1; i < len(rows); i++ {
		if r.config.MaxRows > 0 && len(dataRows) >= r.config.MaxRows {
			r.logger.Warn("Row limit %d reached, ignoring %d remaining rows", r.config.MaxRows, len(rows)-i)
			break
		}

		rowData := make(membership.RawRow)
		for j, cell := range rows[i] {
			if j >= len(headers) || cell == "" {
				continue
			}
			rowData[headers[j]] = value(i, j, cell)
		}
		if len(rowData) == 0 {
			continue
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("File processed (%d columns, %d rows)", len(headers), len(dataRows))

	return &membership.SheetData{
		Name:    name,
		Headers: membership.HeadersOf(headers, dataRows),
		Rows:    dataRows,
	}, nil
}

// uniqueHeaders trims header cells, names blank ones and suffixes repeats
func uniqueHeaders(headerRow []string) []string {
	headers := make([]string, len(headerRow))
	used := make(map[string]int, len(headerRow))
	for i, raw := range headerRow {
		h := strings.TrimSpace(raw)
		if h == "" {
			h = emptyHeader
		}
		base := h
		for used[h] > 0 {
			h = fmt.Sprintf("%s_%d", base, used[base])
			used[base]++
		}
		used[h]++
		headers[i] = h
	}
	return headers
}

func sniffDelimiter(sample []byte) rune {
	line := sample
	if idx := bytes.IndexByte(sample, '\n'); idx >= 0 {
		line = sample[:idx]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
