package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"psyphy/adapters/fit"
	"psyphy/adapters/memory"
	"psyphy/adapters/postgres"
	"psyphy/app"
	"psyphy/internal/config"
	"psyphy/ports"
	"psyphy/ui"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ledger, err := buildLedger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize trial ledger: %v", err)
	}

	stimulus := app.NewStimulusService(cfg.Stimulus)
	analysis := app.NewAnalysisService(fit.NewLeastSquares(), ledger, cfg.Fitter)

	server := ui.NewApp(ledger, stimulus, analysis)
	log.Printf("Starting psyphy server on http://localhost:%s", cfg.Server.Port)
	log.Fatal(server.ListenAndServe(cfg.Server.Port))
}

func buildLedger(cfg *config.Config) (ports.TrialLedgerPort, error) {
	if cfg.Database.URL == "" {
		log.Println("DATABASE_URL not set, using in-memory trial ledger")
		return memory.NewTrialLedger(), nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	ledger := postgres.NewTrialLedger(db)
	if err := ledger.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}
	log.Println("Connected to PostgreSQL trial ledger")
	return ledger, nil
}
