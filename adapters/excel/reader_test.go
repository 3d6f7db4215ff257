package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"adherents/domain/core"
	"adherents/internal"
)

func newTestReader(cfg ReaderConfig) *DataReader {
	return NewDataReader(cfg, internal.NewLogger(internal.LogLevelError))
}

func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, DetectFormat("adherents.XLSX"))
	assert.Equal(t, FormatCSV, DetectFormat("/tmp/export.csv"))
	assert.Equal(t, FormatUnknown, DetectFormat("legacy.xls"))
	assert.Equal(t, FormatUnknown, DetectFormat("notes"))
}

func TestDecodeExcelKeepsCellTypes(t *testing.T) {
	buf := buildWorkbook(t, "Adhérents", [][]interface{}{
		{"Nom", "Prénom", "Début", "Fin"},
		{"Dupont", "Jean", 44927, "2099-01-01"},
		{"Martin", "", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), 47119.0},
		{},
		{"007", "Bond"},
	})

	sheet, err := newTestReader(DefaultReaderConfig()).Decode(context.Background(), "adherents.xlsx", buf)
	require.NoError(t, err)

	assert.Equal(t, "Adhérents", sheet.Name)
	assert.Equal(t, []string{"Nom", "Prénom", "Début", "Fin"}, sheet.Headers)
	require.Len(t, sheet.Rows, 3, "blank rows are skipped")

	assert.Equal(t, "Dupont", sheet.Rows[0]["Nom"])
	assert.Equal(t, 44927.0, sheet.Rows[0]["Début"])
	assert.Equal(t, "2099-01-01", sheet.Rows[0]["Fin"])

	_, hasFirstName := sheet.Rows[1].Get("Prénom")
	assert.False(t, hasFirstName, "empty cells are absent")
	assert.IsType(t, 0.0, sheet.Rows[1]["Début"], "date cells arrive as serials")

	assert.Equal(t, "007", sheet.Rows[2]["Nom"], "text cells stay text")
}

func TestDecodeExcelSelectsConfiguredSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Archive")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Nom"}))
	require.NoError(t, f.SetSheetRow("Archive", "A1", &[]interface{}{"Ancien"}))
	require.NoError(t, f.SetSheetRow("Archive", "A2", &[]interface{}{"Durand"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	sheet, err := newTestReader(ReaderConfig{SheetName: "Archive"}).Decode(context.Background(), "a.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ancien"}, sheet.Headers)
	require.Len(t, sheet.Rows, 1)

	_, err = newTestReader(ReaderConfig{SheetName: "Absente"}).Decode(context.Background(), "a.xlsx", bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, core.ErrUnreadableFile)
}

func TestDecodeCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"semicolon", "Nom;Prénom;Début;Fin\nDupont;Jean;2020-01-01;2099-01-01\n"},
		{"comma with BOM", "\xEF\xBB\xBFNom,Prénom,Début,Fin\r\nDupont,Jean,2020-01-01,2099-01-01\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := newTestReader(DefaultReaderConfig()).Decode(context.Background(), "in.csv", strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, []string{"Nom", "Prénom", "Début", "Fin"}, sheet.Headers)
			require.Len(t, sheet.Rows, 1)
			assert.Equal(t, "Jean", sheet.Rows[0]["Prénom"])
			assert.Equal(t, "2020-01-01", sheet.Rows[0]["Début"])
		})
	}
}

func TestDecodeCSVRaggedRowsAndHeaders(t *testing.T) {
	input := "Nom;;Nom; Fin \nDupont;x;Durand\nMartin;;;2099-01-01;extra\n"

	sheet, err := newTestReader(ReaderConfig{}).Decode(context.Background(), "in.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Nom", "__EMPTY", "Nom_1", "Fin"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Durand", sheet.Rows[0]["Nom_1"])
	assert.Equal(t, "2099-01-01", sheet.Rows[1]["Fin"])
	assert.Len(t, sheet.Rows[1], 2)
}

func TestDecodeMaxRows(t *testing.T) {
	input := "Nom\nA\nB\nC\n"
	sheet, err := newTestReader(ReaderConfig{MaxRows: 2}).Decode(context.Background(), "in.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 2)
}

func TestDecodeFailures(t *testing.T) {
	reader := newTestReader(DefaultReaderConfig())
	ctx := context.Background()

	_, err := reader.Decode(ctx, "legacy.xls", strings.NewReader("whatever"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
	assert.ErrorIs(t, err, core.ErrUnreadableFile)

	_, err = reader.Decode(ctx, "broken.xlsx", strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, core.ErrUnreadableFile)

	_, err = reader.Decode(ctx, "empty.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, core.ErrUnreadableFile)

	_, err = reader.ReadFile(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, core.ErrUnreadableFile)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adherents.csv")
	require.NoError(t, os.WriteFile(path, []byte("Nom;Prénom\nDupont;Jean\n"), 0o600))

	sheet, err := newTestReader(DefaultReaderConfig()).ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 1)
}

func TestDecodeCSVHeadersInFirstSeenOrder(t *testing.T) {
	input := "Nom;Prénom;Email;Fin\nDupont;;;2099-01-01\nMartin;Claire;;2099-01-01\n"

	sheet, err := newTestReader(DefaultReaderConfig()).Decode(context.Background(), "in.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Nom", "Fin", "Prénom"}, sheet.Headers, "unfilled columns are dropped")
}
