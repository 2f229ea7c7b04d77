package main

import (
	"context"
	"flag"
	"log"

	"github.com/alexivanou/forecast-widget/internal/config"
	"github.com/alexivanou/forecast-widget/internal/database"
	"github.com/alexivanou/forecast-widget/internal/repository"
	"github.com/alexivanou/forecast-widget/internal/seeder"
	"go.uber.org/zap"
)

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Directory holding the sqlite and postgres migration sets")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.DB.IsMemory() {
		logger.Warn("Seeding an in-memory database; the data is gone when this process exits")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	if err := database.Migrate(db, cfg.DB, *migrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Starting data import...", zap.String("data_dir", cfg.Seeder.DataDir))

	parser := seeder.NewParser(cfg.Seeder)
	repos := repository.NewRepositories(db, cfg.DB.Type)

	result, err := seeder.Seed(ctx, parser, repos, logger)
	if err != nil {
		logger.Fatal("Failed to import places", zap.Error(err))
	}

	logger.Info("Data import completed successfully!",
		zap.Int("countries", result.Countries),
		zap.Int("places", result.Places),
	)
}
