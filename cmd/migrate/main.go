package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"adherents/internal/migration"
)

// migrate prepares the mapping preference schema ahead of deployment
func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <postgres|sqlite3> <dsn>")
	}

	driverName := os.Args[1]
	dsn := os.Args[2]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Mapping preference schema is up to date (%s)", driverName)
}
