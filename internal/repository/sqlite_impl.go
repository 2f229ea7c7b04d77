package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alexivanou/forecast-widget/internal/model"
	"github.com/jmoiron/sqlx"
)

type sqlitePlaceRepository struct {
	db *sqlx.DB
}

func (r *sqlitePlaceRepository) SearchPlaces(ctx context.Context, query string, limit int) ([]model.PlaceSuggestion, error) {
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
		WHERE LOWER(p.name) LIKE LOWER(?) || '%' ESCAPE '\'
		ORDER BY p.population DESC, p.name
		LIMIT ?
	`
	var results []model.PlaceSuggestion
	if err := r.db.SelectContext(ctx, &results, q, escapeLike(query), limit); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sqlitePlaceRepository) GetPlaceByID(ctx context.Context, id int) (*model.Place, error) {
	var place model.Place
	if err := r.db.GetContext(ctx, &place, "SELECT * FROM places WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &place, nil
}

func (r *sqlitePlaceRepository) BulkInsertPlaces(ctx context.Context, places []model.Place) error {
	// 100 rows * 7 params stays under SQLite's default variable limit
	return chunk(places, 100, func(batch []model.Place) error {
		_, err := r.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO places (id, country_code, name, population, lat, lon, timezone)
		VALUES (:id, :country_code, :name, :population, :lat, :lon, :timezone)`,
			batch)
		return err
	})
}

type sqliteCountryRepository struct {
	db *sqlx.DB
}

func (r *sqliteCountryRepository) BulkInsertCountries(ctx context.Context, countries []model.Country) error {
	return chunk(countries, 400, func(batch []model.Country) error {
		_, err := r.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO countries (code, name)
		VALUES (:code, :name)`,
			batch)
		return err
	})
}
