package ui

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"adherents/app"
	"adherents/domain/core"
	"adherents/domain/membership"
	"adherents/internal"
	"adherents/internal/errors"
	"adherents/ports"
	"adherents/ui/middleware"
)

// Server exposes the export workflow as a JSON API
type Server struct {
	router    *gin.Engine
	service   *app.ExportService
	sheets    ports.SheetCache
	location  *time.Location
	maxUpload int64
	logger    *internal.Logger
}

// ServerConfig holds API settings
type ServerConfig struct {
	MaxUploadMB int
	Location    *time.Location
}

// SheetResponse describes a loaded sheet and the mapping offered for it
type SheetResponse struct {
	ID       core.SheetID             `json:"id"`
	Name     string                   `json:"name"`
	Headers  []string                 `json:"headers"`
	RowCount int                      `json:"row_count"`
	Mapping  membership.ColumnMapping `json:"mapping"`
	Source   app.MappingSource        `json:"mapping_source"`
}

// ExportRequest is the body of POST /api/sheets/:id/export
type ExportRequest struct {
	Mapping  membership.ColumnMapping `json:"mapping"`
	AsOf     string                   `json:"as_of"`
	Filename string                   `json:"filename"`
}

// NewServer creates a new API server instance
func NewServer(service *app.ExportService, sheets ports.SheetCache, config ServerConfig, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 50
	}

	s := &Server{
		router:    gin.New(),
		service:   service,
		sheets:    sheets,
		location:  config.Location,
		maxUpload: int64(config.MaxUploadMB) * 1024 * 1024,
		logger:    logger.With("API"),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLogger(s.logger))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/sheets", middleware.LimitUploadSize(s.maxUpload+1024*1024), s.handleFileUpload)
	api.GET("/sheets/:id", s.handleGetSheet)
	api.DELETE("/sheets/:id", s.handleDeleteSheet)
	api.POST("/sheets/:id/export", s.handleExport)
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting adherents API on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleFileUpload decodes the uploaded sheet and keeps it for export
func (s *Server) handleFileUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		s.logger.Warn("[handleFileUpload] no file uploaded: %v", err)
		if status := statusFor(err); status == http.StatusRequestEntityTooLarge {
			s.respondError(c, status, fmt.Sprintf("Le fichier dépasse la limite de %d Mo.", s.maxUpload/(1024*1024)))
			return
		}
		s.respondError(c, http.StatusBadRequest, "Aucun fichier reçu.")
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		s.respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Le fichier dépasse la limite de %d Mo.", s.maxUpload/(1024*1024)))
		return
	}
	if !hasAllowedExtension(header.Filename) {
		s.respondError(c, http.StatusBadRequest, app.MsgUnreadableFile)
		return
	}

	sheet, err := s.service.LoadSheet(c.Request.Context(), header.Filename, file)
	if err != nil {
		s.respondAppError(c, err)
		return
	}

	id := s.sheets.Put(sheet)
	c.JSON(http.StatusCreated, s.describe(c, id, sheet))
}

func (s *Server) handleGetSheet(c *gin.Context) {
	id, sheet, ok := s.lookupSheet(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.describe(c, id, sheet))
}

func (s *Server) handleDeleteSheet(c *gin.Context) {
	id, err := core.ParseSheetID(c.Param("id"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	s.sheets.Delete(id)
	c.Status(http.StatusNoContent)
}

// handleExport runs the export and returns the CSV, or JSON with ?format=json
func (s *Server) handleExport(c *gin.Context) {
	_, sheet, ok := s.lookupSheet(c)
	if !ok {
		return
	}

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "Corps de requête invalide.")
		return
	}

	asOf, err := parseAsOf(req.AsOf, s.location)
	if err != nil {
		s.respondAppError(c, err)
		return
	}

	result, err := s.service.Export(c.Request.Context(), app.ExportRequest{
		Sheet:    sheet,
		Mapping:  req.Mapping,
		AsOf:     asOf,
		Filename: req.Filename,
	})
	if err != nil {
		s.respondAppError(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, gin.H{
			"filename": result.Filename,
			"payload":  result.Payload,
			"overflow": result.Overflow,
			"message":  result.Message,
			"stats":    result.Stats,
		})
		return
	}

	c.Header("Content-Disposition", attachment(result.Filename))
	c.Header("X-Overflow-Count", strconv.Itoa(len(result.Overflow)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(result.Payload))
}

func (s *Server) lookupSheet(c *gin.Context) (core.SheetID, *membership.SheetData, bool) {
	id, err := core.ParseSheetID(c.Param("id"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	sheet, err := s.sheets.Get(id)
	if err != nil {
		s.respondError(c, http.StatusNotFound, "Fichier introuvable ou expiré, veuillez le recharger.")
		return "", nil, false
	}
	return id, sheet, true
}

func (s *Server) describe(c *gin.Context, id core.SheetID, sheet *membership.SheetData) SheetResponse {
	resolved := s.service.ResolveMapping(c.Request.Context(), sheet.Headers)
	return SheetResponse{
		ID:       id,
		Name:     sheet.Name,
		Headers:  sheet.Headers,
		RowCount: len(sheet.Rows),
		Mapping:  resolved.Mapping,
		Source:   resolved.Source,
	}
}

func (s *Server) respondAppError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": errors.UserMessage(err), "code": errors.GetCode(err)})
}

func (s *Server) respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
