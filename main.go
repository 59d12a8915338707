package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gotidy/adapters/api"
	"gotidy/adapters/excel"
	"gotidy/adapters/postgres"
	"gotidy/app"
	"gotidy/internal/config"
	"gotidy/internal/logging"
	"gotidy/ports"

	"github.com/jmoiron/sqlx"
)

func main() {
	// Load environment variables from .env file
	if !config.LoadDotEnv() {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(appConfig.Log.Level, appConfig.Log.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run store is optional
	var runs ports.RunRepository
	var db *sqlx.DB
	if appConfig.Database.Enabled() {
		db, err = postgres.Open(ctx, appConfig.Database.Driver, appConfig.Database.URL)
		if err != nil {
			logger.Fatalw("failed to initialize database", "driver", appConfig.Database.Driver, "error", err)
		}
		defer db.Close()
		runs = postgres.NewRunRepository(db)
		logger.Infow("run store ready", "driver", appConfig.Database.Driver)
	} else {
		logger.Infow("DATABASE_URL not set, runs will not be stored")
	}

	reader := excel.NewDataReader(excel.DefaultExcelConfig(), logger)
	cleaning := app.NewCleaningService(reader, runs, logger)

	handler := api.NewServer(cleaning, runs, api.Defaults{
		Policy:      appConfig.Pipeline.Policy,
		FillValue:   appConfig.Pipeline.FillValue,
		DateFormats: appConfig.Pipeline.DateFormats,
		DateMode:    string(appConfig.Pipeline.DateMode),
		Seed:        appConfig.Pipeline.Seed,
	}, logger)

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infow("starting server", "port", appConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("graceful shutdown failed", "error", err)
	}
}
