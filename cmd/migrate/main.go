package main

import (
	"context"
	"log"
	"os"
	"time"

	"gotidy/adapters/postgres"
	"gotidy/internal/config"
	"gotidy/internal/migration"
)

// migrate applies the run store schema. The target comes from the first
// argument or DATABASE_URL; the driver from TIDY_DB_DRIVER.
func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	url := cfg.Database.URL
	if len(os.Args) > 1 {
		url = os.Args[1]
	}
	if url == "" {
		log.Fatal("Usage: migrate <database_url> (or set DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Printf("Applying schema version %s (%s)", migration.NewRunner().Version(), cfg.Database.Driver)

	// Open runs the migration after connecting
	db, err := postgres.Open(ctx, cfg.Database.Driver, url)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	log.Printf("Schema up to date")
}
