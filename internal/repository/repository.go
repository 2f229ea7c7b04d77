package repository

import (
	"context"
	"strings"

	"github.com/alexivanou/forecast-widget/internal/config"
	"github.com/alexivanou/forecast-widget/internal/model"
	"github.com/jmoiron/sqlx"
)

// PlaceRepository defines operations for places
type PlaceRepository interface {
	SearchPlaces(ctx context.Context, query string, limit int) ([]model.PlaceSuggestion, error)
	GetPlaceByID(ctx context.Context, id int) (*model.Place, error)
	BulkInsertPlaces(ctx context.Context, places []model.Place) error
}

// CountryRepository defines operations for countries
type CountryRepository interface {
	BulkInsertCountries(ctx context.Context, countries []model.Country) error
}

// Container holds all repositories
type Container struct {
	Place   PlaceRepository
	Country CountryRepository
}

// NewRepositories creates repository implementations based on DB type
func NewRepositories(db *sqlx.DB, dbType config.DBType) *Container {
	if dbType == config.DBTypePostgreSQL {
		return &Container{
			Place:   &pgPlaceRepository{db: db},
			Country: &pgCountryRepository{db: db},
		}
	}

	// Default to SQLite
	return &Container{
		Place:   &sqlitePlaceRepository{db: db},
		Country: &sqliteCountryRepository{db: db},
	}
}

// IsDatabaseEmpty reports whether the places table has no rows or does not exist yet
func IsDatabaseEmpty(ctx context.Context, db *sqlx.DB) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM places"); err != nil {
		return true, nil
	}
	return count == 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func chunk[T any](items []T, size int, fn func([]T) error) error {
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		if err := fn(items[i:end]); err != nil {
			return err
		}
	}
	return nil
}
