package seeder

import (
	"context"
	"fmt"

	"github.com/alexivanou/forecast-widget/internal/repository"
	"go.uber.org/zap"
)

// Result summarizes one import run
type Result struct {
	Countries int
	Places    int
}

// Seed parses the GeoNames dumps and loads them into the place directory
func Seed(ctx context.Context, parser *Parser, repos *repository.Container, logger *zap.Logger) (*Result, error) {
	logger.Info("Parsing countries...")
	countries, err := parser.ParseCountries()
	if err != nil {
		return nil, fmt.Errorf("failed to parse countries: %w", err)
	}

	logger.Info("Parsing places...")
	places, err := parser.ParsePlaces()
	if err != nil {
		return nil, fmt.Errorf("failed to parse places: %w", err)
	}
	parsed := len(places)
	places = FilterKnownCountries(places, countries)
	if dropped := parsed - len(places); dropped > 0 {
		logger.Warn("Skipping places with unknown country", zap.Int("count", dropped))
	}

	logger.Info("Inserting countries...", zap.Int("count", len(countries)))
	if err := repos.Country.BulkInsertCountries(ctx, countries); err != nil {
		return nil, fmt.Errorf("failed to insert countries: %w", err)
	}

	logger.Info("Inserting places...", zap.Int("count", len(places)))
	if err := repos.Place.BulkInsertPlaces(ctx, places); err != nil {
		return nil, fmt.Errorf("failed to insert places: %w", err)
	}

	return &Result{Countries: len(countries), Places: len(places)}, nil
}
