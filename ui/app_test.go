package ui

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adherents/domain/membership"
	"adherents/internal"
	"adherents/internal/session"
)

func newTestApp(t *testing.T) (*App, *session.SheetStore) {
	t.Helper()
	sheets := session.NewSheetStore(time.Hour)
	a, err := NewApp(newTestService(), sheets, Config{MaxUploadMB: 1, Location: time.UTC}, internal.NewLogger(internal.LogLevelError))
	require.NoError(t, err)
	a.now = func() time.Time { return testNow }
	return a, sheets
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func storeMembers(sheets *session.SheetStore) string {
	return sheets.Put(&membership.SheetData{
		Name:    "membres",
		Headers: []string{"Nom", "Prénom", "Début", "Fin"},
		Rows: []membership.RawRow{
			{"Nom": "Dupont", "Prénom": "Jean", "Début": "2020-01-01", "Fin": "2099-01-01"},
			{"Nom": "Martin", "Prénom": "Claire", "Début": "2019-03-01", "Fin": "2020-03-01"},
		},
	}).String()
}

func TestApp_Index(t *testing.T) {
	a, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/upload"`)
}

func TestApp_UploadShowsMapping(t *testing.T) {
	a, sheets := newTestApp(t)

	rec := upload(t, a.Handler(), "/upload", "membres.csv", membersCSV)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="sheet_id"`)
	assert.Contains(t, body, `<option value="Nom" selected>`)
	assert.Contains(t, body, `value="2024-05-01"`)
	assert.Contains(t, body, `value="adherent.csv"`)
	assert.Equal(t, 1, sheets.Len())
}

func TestApp_UploadUnreadableFile(t *testing.T) {
	a, sheets := newTestApp(t)

	rec := upload(t, a.Handler(), "/upload", "membres.xlsx", "garbage")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to parse Excel file.")
	assert.Zero(t, sheets.Len())
}

func TestApp_ExportDownloads(t *testing.T) {
	a, sheets := newTestApp(t)
	id := storeMembers(sheets)

	rec := postForm(a.Handler(), "/export", url.Values{
		"sheet_id":   {id},
		"last_name":  {"Nom"},
		"first_name": {"Prénom"},
		"start":      {"Début"},
		"end":        {"Fin"},
		"as_of":      {"2023-01-01"},
		"filename":   {"membres.csv"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "attachment; filename=membres.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t,
		"Base de données;Base de données;2024-05-01;2024-05-01\nDupont;Jean;2020-01-01;2099-01-01\n",
		rec.Body.String())
}

func TestApp_ExportIncompleteMapping(t *testing.T) {
	a, sheets := newTestApp(t)
	id := storeMembers(sheets)

	rec := postForm(a.Handler(), "/export", url.Values{
		"sheet_id":   {id},
		"last_name":  {"Nom"},
		"first_name": {"Prénom"},
		"start":      {"Début"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Veuillez compléter toutes les sélections")
	assert.Contains(t, rec.Body.String(), `<option value="Nom" selected>`)
}

func TestApp_ExportExpiredSheet(t *testing.T) {
	a, _ := newTestApp(t)

	rec := postForm(a.Handler(), "/export", url.Values{"sheet_id": {"0190f5e4-8b8a-7000-8000-000000000000"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/upload"`)
}
