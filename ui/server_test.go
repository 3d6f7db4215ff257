package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adherents/adapters/datareadiness/coercer"
	"adherents/adapters/excel"
	"adherents/adapters/store"
	"adherents/app"
	"adherents/internal"
	"adherents/internal/export"
	"adherents/internal/mapping"
	"adherents/internal/pipeline"
	"adherents/internal/session"
)

const membersCSV = "Nom;Prénom;Début;Fin\n" +
	"Dupont;Jean;2020-01-01;2099-01-01\n" +
	"Dupont;Jean;2021-06-01;2099-01-01\n"

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService() *app.ExportService {
	logger := internal.NewLogger(internal.LogLevelError)
	c := coercer.NewDateCoercer(coercer.CoercionConfig{Location: time.UTC})
	svc := app.NewExportService(
		excel.NewDataReader(excel.DefaultReaderConfig(), logger),
		store.NewMemoryPreferenceRepository(),
		mapping.NewSuggester(nil),
		pipeline.New(pipeline.DefaultConfig(), c, logger),
		export.NewFormatter(export.DefaultConfig()),
		"",
		time.UTC,
		logger,
	)
	return svc.WithClock(func() time.Time { return testNow })
}

func newTestServer(t *testing.T) (*Server, *session.SheetStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sheets := session.NewSheetStore(time.Hour)
	srv := NewServer(newTestService(), sheets, ServerConfig{MaxUploadMB: 1, Location: time.UTC}, internal.NewLogger(internal.LogLevelError))
	return srv, sheets
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func upload(t *testing.T, h http.Handler, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(h http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadMembers(t *testing.T, srv *Server) SheetResponse {
	t.Helper()
	rec := upload(t, srv.Handler(), "/api/sheets", "membres.csv", membersCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp SheetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_UploadSuggestsMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := uploadMembers(t, srv)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, []string{"Nom", "Prénom", "Début", "Fin"}, resp.Headers)
	assert.Equal(t, 2, resp.RowCount)
	assert.Equal(t, app.SourceSuggested, resp.Source)
	assert.Equal(t, "Nom", resp.Mapping.LastName)
	assert.Equal(t, "Prénom", resp.Mapping.FirstName)
	assert.Equal(t, "Début", resp.Mapping.Start)
	assert.Equal(t, "Fin", resp.Mapping.End)
}

func TestServer_UploadRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{"no file", "", ""},
		{"wrong extension", "membres.pdf", "%PDF"},
		{"corrupt workbook", "membres.xlsx", "not a zip archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, srv.Handler(), "/api/sheets", tt.filename, tt.content)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestServer_ExportCSV(t *testing.T) {
	srv, _ := newTestServer(t)
	sheet := uploadMembers(t, srv)

	rec := postJSON(srv.Handler(), "/api/sheets/"+sheet.ID.String()+"/export", ExportRequest{
		Mapping: sheet.Mapping,
		AsOf:    "2023-01-01",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=adherent.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "0", rec.Header().Get("X-Overflow-Count"))
	assert.Equal(t,
		"Base de données;Base de données;2024-05-01;2024-05-01\nDupont;Jean;2020-01-01;2099-01-01\n",
		rec.Body.String())

	// the mapping used for the export is offered next time
	get := httptest.NewRecorder()
	srv.Handler().ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/sheets/"+sheet.ID.String(), nil))
	require.Equal(t, http.StatusOK, get.Code)
	var again SheetResponse
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &again))
	assert.Equal(t, app.SourceStored, again.Source)
}

func TestServer_ExportJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	sheet := uploadMembers(t, srv)

	rec := postJSON(srv.Handler(), "/api/sheets/"+sheet.ID.String()+"/export?format=json", ExportRequest{
		Mapping:  sheet.Mapping,
		Filename: "membres.csv",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Filename string        `json:"filename"`
		Payload  string        `json:"payload"`
		Overflow []interface{} `json:"overflow"`
		Message  string        `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "membres.csv", body.Filename)
	assert.True(t, strings.HasSuffix(body.Payload, "Dupont;Jean;2020-01-01;2099-01-01\n"))
	assert.Empty(t, body.Overflow)
	assert.Equal(t, app.MsgExportDone, body.Message)
}

func TestServer_ExportErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	sheet := uploadMembers(t, srv)
	path := "/api/sheets/" + sheet.ID.String() + "/export"

	t.Run("incomplete mapping", func(t *testing.T) {
		m := sheet.Mapping
		m.End = ""
		rec := postJSON(srv.Handler(), path, ExportRequest{Mapping: m})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "INCOMPLETE_MAPPING")
	})

	t.Run("bad reference date", func(t *testing.T) {
		rec := postJSON(srv.Handler(), path, ExportRequest{Mapping: sheet.Mapping, AsOf: "01/01/2023"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown sheet", func(t *testing.T) {
		rec := postJSON(srv.Handler(), "/api/sheets/0190f5e4-8b8a-7000-8000-000000000000/export", ExportRequest{Mapping: sheet.Mapping})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := postJSON(srv.Handler(), "/api/sheets/nope/export", ExportRequest{Mapping: sheet.Mapping})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_DeleteSheet(t *testing.T) {
	srv, sheets := newTestServer(t)
	sheet := uploadMembers(t, srv)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sheets/"+sheet.ID.String(), nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, sheets.Len())
}
