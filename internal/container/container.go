package container

import (
	"context"
	"fmt"

	"adherents/adapters/datareadiness/coercer"
	"adherents/adapters/excel"
	"adherents/adapters/store"
	"adherents/app"
	"adherents/internal"
	"adherents/internal/config"
	"adherents/internal/errors"
	"adherents/internal/export"
	"adherents/internal/mapping"
	"adherents/internal/pipeline"
	"adherents/internal/session"
	"adherents/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	Reader      *excel.DataReader
	Preferences ports.MappingPreferenceRepository
	Sheets      *session.SheetStore

	// Core components
	Coercer   *coercer.DateCoercer
	Suggester *mapping.Suggester
	Pipeline  *pipeline.Pipeline
	Formatter *export.Formatter

	// Services
	ExportService *app.ExportService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level)),
	}
	c.initCore()

	return c, nil
}

// Init connects the preference store and builds the services on top of it
func (c *Container) Init(ctx context.Context) error {
	prefs, err := store.Open(ctx, store.Config{
		Driver: c.Config.Store.Driver,
		DSN:    c.Config.Store.DSN,
		TTL:    c.Config.Store.TTL,
	})
	if err != nil {
		return errors.Wrapf(errors.StoreError(err), "failed to open %s preference store", c.Config.Store.Driver)
	}
	c.Preferences = prefs

	c.initServices()

	c.Logger.With("Container").Info("initialized with %s preference store", c.Config.Store.Driver)
	return nil
}

// initCore builds the components that need no external connection
func (c *Container) initCore() {
	c.Reader = excel.NewDataReader(excel.ReaderConfig{
		SheetName: c.Config.Sheet.SheetName,
		MaxRows:   c.Config.Sheet.MaxRows,
	}, c.Logger)

	c.Coercer = coercer.NewDateCoercer(coercer.CoercionConfig{
		Location: c.Config.Export.Location,
		Layouts:  coercer.DefaultLayouts,
	})
	c.Suggester = mapping.NewSuggester(mapping.DefaultTerms)

	pipeConfig := pipeline.DefaultConfig()
	pipeConfig.Workers = c.Config.Export.BuildWorkers
	c.Pipeline = pipeline.New(pipeConfig, c.Coercer, c.Logger)

	c.Formatter = export.NewFormatter(export.Config{
		BannerLabel: c.Config.Export.BannerLabel,
		NameLimit:   c.Config.Export.NameLimit,
	})

	c.Sheets = session.NewSheetStore(c.Config.Server.SheetTTL)
}

func (c *Container) initServices() {
	c.ExportService = app.NewExportService(
		c.Reader,
		c.Preferences,
		c.Suggester,
		c.Pipeline,
		c.Formatter,
		c.Config.Export.Filename,
		c.Coercer.Location(),
		c.Logger,
	)
}

// Close releases the preference store
func (c *Container) Close() error {
	if c.Preferences == nil {
		return nil
	}
	if err := c.Preferences.Close(); err != nil {
		return fmt.Errorf("failed to close preference store: %w", err)
	}
	return nil
}
