package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"adherents/internal/config"
	"adherents/internal/container"
	"adherents/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Close()

	go appContainer.Sheets.RunJanitor(ctx, appConfig.Server.SheetTTL/2)

	app, err := ui.NewApp(appContainer.ExportService, appContainer.Sheets, ui.Config{
		Port:        appConfig.Server.UIPort,
		MaxUploadMB: appConfig.Server.MaxUploadMB,
		Location:    appConfig.Export.Location,
	}, appContainer.Logger)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Fatal(app.Start())
}
