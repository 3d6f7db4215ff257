package ui

import (
	stderrors "errors"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"adherents/domain/core"
	"adherents/domain/membership"
	"adherents/internal/errors"
)

var allowedExtensions = []string{".xlsx", ".xlsm", ".xls", ".csv", ".txt"}

// hasAllowedExtension checks the upload name before any decoding is attempted
func hasAllowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// statusFor maps an error to the HTTP status a client should see
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.CodeUnreadableFile, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	}
	if core.IsExportRefused(err) {
		return http.StatusUnprocessableEntity
	}
	if core.IsNotFoundError(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// mappingFromForm reads the role selects of the mapping form; other fields are ignored
func mappingFromForm(form url.Values) membership.ColumnMapping {
	var m membership.ColumnMapping
	for key, values := range form {
		role, err := membership.ParseRole(key)
		if err != nil || len(values) == 0 {
			continue
		}
		m = m.With(role, values[0])
	}
	return m
}

// parseAsOf reads an optional YYYY-MM-DD date; blank means today
func parseAsOf(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := core.ParseDate(s, loc)
	if err != nil {
		return time.Time{}, errors.WithCode(errors.CodeInvalidInput, "La date de référence doit être au format AAAA-MM-JJ.", err)
	}
	return t, nil
}

// attachment builds a Content-Disposition value for a download
func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(filename)})
}
