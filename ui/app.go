package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adherents/app"
	"adherents/domain/core"
	"adherents/domain/membership"
	"adherents/internal"
	"adherents/internal/errors"
	"adherents/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App is the browser front end: upload, pick columns, download
type App struct {
	router    *chi.Mux
	service   *app.ExportService
	sheets    ports.SheetCache
	templates *template.Template
	config    Config
	now       core.Clock
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port        string
	MaxUploadMB int
	Location    *time.Location
}

type roleField struct {
	Name     string
	Label    string
	Selected string
}

type mappingPage struct {
	SheetID   core.SheetID
	SheetName string
	RowCount  int
	Headers   []string
	Fields    []roleField
	AsOf      string
	Filename  string
	Message   string
}

var roleLabels = map[membership.Role]string{
	membership.RoleLastName:  "Nom",
	membership.RoleFirstName: "Prénom",
	membership.RoleStart:     "Date de début",
	membership.RoleEnd:       "Date de fin",
}

// NewApp creates a new UI application
func NewApp(service *app.ExportService, sheets ports.SheetCache, config Config, logger *internal.Logger) (*App, error) {
	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 50
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		sheets:    sheets,
		templates: templates,
		config:    config,
		now:       core.SystemClock,
		logger:    logger.With("UI"),
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/upload", a.handleUpload)
	a.router.Post("/export", a.handleExport)
}

// Handler returns the HTTP handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start() error {
	port := a.config.Port
	if port == "" {
		port = "8081"
	}
	a.logger.Info("Starting adherents UI on :%s", port)
	return http.ListenAndServe(":"+port, a.router)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, http.StatusOK, "index.html", map[string]string{})
}

// handleUpload decodes the file; on failure the page starts over with a message
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(a.config.MaxUploadMB) * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		a.renderTemplate(w, http.StatusBadRequest, "index.html", map[string]string{"Message": "Aucun fichier reçu."})
		return
	}
	defer file.Close()

	if header.Size > maxBytes || !hasAllowedExtension(header.Filename) {
		a.renderTemplate(w, http.StatusBadRequest, "index.html", map[string]string{"Message": app.MsgUnreadableFile})
		return
	}

	sheet, err := a.service.LoadSheet(r.Context(), header.Filename, file)
	if err != nil {
		a.renderTemplate(w, statusFor(err), "index.html", map[string]string{"Message": errors.UserMessage(err)})
		return
	}

	id := a.sheets.Put(sheet)
	resolved := a.service.ResolveMapping(r.Context(), sheet.Headers)
	a.renderMapping(w, http.StatusOK, a.mappingPage(id, sheet, resolved.Mapping, "", a.service.DefaultFilename()))
}

// handleExport streams the CSV as a download, or re-renders the form with a message
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.renderTemplate(w, http.StatusBadRequest, "index.html", map[string]string{"Message": "Formulaire invalide."})
		return
	}

	id, err := core.ParseSheetID(r.PostFormValue("sheet_id"))
	if err != nil {
		a.renderTemplate(w, http.StatusBadRequest, "index.html", map[string]string{"Message": app.MsgNoRows})
		return
	}
	sheet, err := a.sheets.Get(id)
	if err != nil {
		a.renderTemplate(w, http.StatusNotFound, "index.html", map[string]string{"Message": "Fichier introuvable ou expiré, veuillez le recharger."})
		return
	}

	m := mappingFromForm(r.PostForm)
	filename := r.PostFormValue("filename")

	asOf, err := parseAsOf(r.PostFormValue("as_of"), a.config.Location)
	if err == nil {
		var result *app.ExportResult
		result, err = a.service.Export(r.Context(), app.ExportRequest{
			Sheet:    sheet,
			Mapping:  m,
			AsOf:     asOf,
			Filename: filename,
		})
		if err == nil {
			if len(result.Overflow) > 0 {
				a.logger.Warn("%s", result.Message)
			}
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", attachment(result.Filename))
			w.Header().Set("X-Overflow-Count", strconv.Itoa(len(result.Overflow)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(result.Payload))
			return
		}
	}

	page := a.mappingPage(id, sheet, m, r.PostFormValue("as_of"), filename)
	page.Message = errors.UserMessage(err)
	a.renderMapping(w, statusFor(err), page)
}

func (a *App) mappingPage(id core.SheetID, sheet *membership.SheetData, m membership.ColumnMapping, asOf, filename string) mappingPage {
	if asOf == "" {
		asOf = core.FormatDate(a.now().In(a.config.Location))
	}
	fields := make([]roleField, 0, len(membership.Roles))
	for _, role := range membership.Roles {
		fields = append(fields, roleField{Name: string(role), Label: roleLabels[role], Selected: m.Header(role)})
	}
	return mappingPage{
		SheetID:   id,
		SheetName: sheet.Name,
		RowCount:  len(sheet.Rows),
		Headers:   sheet.Headers,
		Fields:    fields,
		AsOf:      asOf,
		Filename:  filename,
	}
}

func (a *App) renderMapping(w http.ResponseWriter, status int, page mappingPage) {
	a.renderTemplate(w, status, "mapping.html", page)
}

// renderTemplate writes a full page with the given status
func (a *App) renderTemplate(w http.ResponseWriter, status int, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
	}
}
