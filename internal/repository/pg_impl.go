package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alexivanou/forecast-widget/internal/model"
	"github.com/jmoiron/sqlx"
)

// --- PostgreSQL Implementation ---

type pgPlaceRepository struct {
	db *sqlx.DB
}

func (r *pgPlaceRepository) SearchPlaces(ctx context.Context, query string, limit int) ([]model.PlaceSuggestion, error) {
	q := `
		SELECT
			p.id,
			p.name,
			COALESCE(c.name, p.country_code) AS country,
			p.country_code,
			p.population,
			p.lat,
			p.lon
		FROM places p
		LEFT JOIN countries c ON c.code = p.country_code
		WHERE unaccent(LOWER(p.name)) LIKE unaccent(LOWER($1)) || '%' ESCAPE '\'
		ORDER BY p.population DESC, p.name
		LIMIT $2
	`
	var results []model.PlaceSuggestion
	if err := r.db.SelectContext(ctx, &results, q, escapeLike(query), limit); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pgPlaceRepository) GetPlaceByID(ctx context.Context, id int) (*model.Place, error) {
	var place model.Place
	if err := r.db.GetContext(ctx, &place, "SELECT * FROM places WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &place, nil
}

func (r *pgPlaceRepository) BulkInsertPlaces(ctx context.Context, places []model.Place) error {
	// stay well below the 65535 parameter limit
	return chunk(places, 2000, func(batch []model.Place) error {
		_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO places (id, country_code, name, population, lat, lon, timezone)
		VALUES (:id, :country_code, :name, :population, :lat, :lon, :timezone)
		ON CONFLICT (id) DO UPDATE SET
			country_code = EXCLUDED.country_code,
			name = EXCLUDED.name,
			population = EXCLUDED.population,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			timezone = EXCLUDED.timezone`,
			batch)
		return err
	})
}

type pgCountryRepository struct {
	db *sqlx.DB
}

func (r *pgCountryRepository) BulkInsertCountries(ctx context.Context, countries []model.Country) error {
	return chunk(countries, 2000, func(batch []model.Country) error {
		_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO countries (code, name)
		VALUES (:code, :name)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
			batch)
		return err
	})
}
