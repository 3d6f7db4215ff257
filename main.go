package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"adherents/internal/config"
	"adherents/internal/container"
	"adherents/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Close()

	go appContainer.Sheets.RunJanitor(ctx, appConfig.Server.SheetTTL/2)

	server := ui.NewServer(appContainer.ExportService, appContainer.Sheets, ui.ServerConfig{
		MaxUploadMB: appConfig.Server.MaxUploadMB,
		Location:    appConfig.Export.Location,
	}, appContainer.Logger)

	httpServer := &http.Server{
		Addr:    ":" + appConfig.Server.Port,
		Handler: server.Handler(),
	}

	go func() {
		appContainer.Logger.Info("Starting adherents API on http://localhost:%s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	<-ctx.Done()
	appContainer.Logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
