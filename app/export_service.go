package app

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"adherents/domain/core"
	"adherents/domain/membership"
	"adherents/internal"
	"adherents/internal/errors"
	"adherents/internal/export"
	"adherents/internal/mapping"
	"adherents/internal/pipeline"
	"adherents/ports"
)

// User-facing messages
const (
	MsgUnreadableFile    = "Failed to parse Excel file. Please ensure it is a valid .xlsx or .xls."
	MsgIncompleteMapping = "Veuillez compléter toutes les sélections avant d'exporter."
	MsgNoRows            = "Aucune donnée chargée. Veuillez importer un fichier avant d'exporter."
	MsgExportDone        = "Exportation terminée."
)

// MappingSource tells where a resolved mapping came from
type MappingSource string

const (
	SourceStored    MappingSource = "stored"
	SourceSuggested MappingSource = "suggested"
)

// ResolvedMapping is the mapping offered to the operator for a header set
type ResolvedMapping struct {
	Mapping     membership.ColumnMapping `json:"mapping"`
	Source      MappingSource            `json:"source"`
	Fingerprint core.HeaderFingerprint   `json:"fingerprint"`
}

// ExportRequest carries everything an export needs
type ExportRequest struct {
	Sheet       *membership.SheetData
	Mapping     membership.ColumnMapping
	AsOf        time.Time // zero means today
	GeneratedOn time.Time // zero means now
	Filename    string    // empty means the configured default
}

// ExportResult is a finished export, ready for a download sink
type ExportResult struct {
	Filename string              `json:"filename"`
	Payload  string              `json:"payload"`
	Overflow []membership.Record `json:"overflow"`
	Message  string              `json:"message"`
	Stats    pipeline.Stats      `json:"stats"`
}

// ExportService coordinates decoding, mapping resolution, the record
// pipeline and formatting. Preference storage failures are logged and
// never block an export.
type ExportService struct {
	decoder   ports.SheetDecoder
	prefs     ports.MappingPreferenceRepository
	suggester *mapping.Suggester
	pipeline  *pipeline.Pipeline
	formatter *export.Formatter
	filename  string
	location  *time.Location
	now       core.Clock
	logger    *internal.Logger
}

func NewExportService(
	decoder ports.SheetDecoder,
	prefs ports.MappingPreferenceRepository,
	suggester *mapping.Suggester,
	pipe *pipeline.Pipeline,
	formatter *export.Formatter,
	defaultFilename string,
	location *time.Location,
	logger *internal.Logger,
) *ExportService {
	if defaultFilename == "" {
		defaultFilename = export.DefaultFilename
	}
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ExportService{
		decoder:   decoder,
		prefs:     prefs,
		suggester: suggester,
		pipeline:  pipe,
		formatter: formatter,
		filename:  defaultFilename,
		location:  location,
		now:       core.SystemClock,
		logger:    logger.With("ExportService"),
	}
}

// WithClock replaces the time source used for default dates
func (s *ExportService) WithClock(clock core.Clock) *ExportService {
	s.now = clock
	return s
}

// DefaultFilename returns the filename used when a request names none
func (s *ExportService) DefaultFilename() string {
	return s.filename
}

// LoadSheet decodes an upload. Any decode failure comes back as a single
// UNREADABLE_FILE error.
func (s *ExportService) LoadSheet(ctx context.Context, filename string, r io.Reader) (*membership.SheetData, error) {
	sheet, err := s.decoder.Decode(ctx, filename, r)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("decode of %s failed: %v", filename, err)
		if !stderrors.Is(err, core.ErrUnreadableFile) {
			err = stderrors.Join(core.ErrUnreadableFile, err)
		}
		return nil, errors.WithCode(errors.CodeUnreadableFile, MsgUnreadableFile, err)
	}

	s.logger.Info("loaded sheet %q: %d headers, %d rows", sheet.Name, len(sheet.Headers), len(sheet.Rows))
	return sheet, nil
}

// ResolveMapping restores the stored mapping for headers when every header
// it names is still present, otherwise suggests one from header names.
func (s *ExportService) ResolveMapping(ctx context.Context, headers []string) ResolvedMapping {
	fp := core.ComputeHeaderFingerprint(headers)

	if s.prefs != nil {
		stored, err := s.prefs.GetMapping(ctx, fp)
		switch {
		case err == nil && stored.CoveredBy(headers):
			s.logger.Debug("restored mapping for %s", fp)
			return ResolvedMapping{Mapping: stored, Source: SourceStored, Fingerprint: fp}
		case err == nil:
			s.logger.Debug("stored mapping for %s names missing headers, ignoring it", fp)
		case !core.IsNotFoundError(err):
			s.logger.Warn("preference lookup failed: %v", err)
		}
	}

	return ResolvedMapping{Mapping: s.suggester.Suggest(headers), Source: SourceSuggested, Fingerprint: fp}
}

// Export runs the record pipeline over the sheet and renders the payload.
// It refuses to run without rows or with an incomplete mapping; data-quality
// problems in individual rows only shrink the output.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Sheet == nil || len(req.Sheet.Rows) == 0 {
		return nil, errors.WithCode(errors.CodeNoRows, MsgNoRows, core.ErrNoRows)
	}
	if !req.Mapping.Complete() {
		s.logger.Debug("export refused, missing roles %v", req.Mapping.Missing())
		return nil, errors.WithCode(errors.CodeIncompleteMapping, MsgIncompleteMapping, core.ErrIncompleteMapping)
	}
	if !req.Mapping.CoveredBy(req.Sheet.Headers) {
		return nil, errors.WithCode(errors.CodeInvalidInput, "La sélection de colonnes ne correspond pas au fichier chargé.", core.ErrIncompleteMapping)
	}

	// Default dates are calendar days in the export location, not the host's.
	now := s.now().In(s.location)
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = core.Day(now)
	}
	generatedOn := req.GeneratedOn
	if generatedOn.IsZero() {
		generatedOn = now
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = s.filename
	}

	run, err := s.pipeline.Run(ctx, req.Sheet.Rows, req.Mapping, asOf)
	if err != nil {
		return nil, err
	}
	formatted := s.formatter.Format(run.Records, generatedOn)

	s.savePreference(ctx, req.Sheet.Headers, req.Mapping)

	message := formatted.StatusMessage()
	if message == "" {
		message = MsgExportDone
	}
	s.logger.Info("exported %d records to %s (%d rows skipped, %d name overflows)",
		run.Stats.Unique, filename, run.Stats.Skipped, len(formatted.Overflow))

	return &ExportResult{
		Filename: filename,
		Payload:  formatted.Payload,
		Overflow: formatted.Overflow,
		Message:  message,
		Stats:    run.Stats,
	}, nil
}

func (s *ExportService) savePreference(ctx context.Context, headers []string, m membership.ColumnMapping) {
	if s.prefs == nil {
		return
	}
	fp := core.ComputeHeaderFingerprint(headers)
	if err := s.prefs.SaveMapping(ctx, fp, m); err != nil {
		s.logger.Warn("could not save mapping preference %s: %v", fp, err)
	}
}
