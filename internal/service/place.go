package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexivanou/forecast-widget/internal/model"
)

const (
	defaultLimit   = 10
	maxLimit       = 20
	minQueryLength = 2
)

// ErrQueryTooShort is returned when a suggest query has fewer than minQueryLength characters
var ErrQueryTooShort = fmt.Errorf("query must be at least %d characters", minQueryLength)

// SuggestPlaces returns places whose name starts with the query, most populous first
func (s *Service) SuggestPlaces(ctx context.Context, req model.SuggestRequest) (*model.SuggestResponse, error) {
	query := strings.TrimSpace(req.Query)
	if len([]rune(query)) < minQueryLength {
		return nil, ErrQueryTooShort
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	results, err := s.placeRepo.SearchPlaces(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search places: %w", err)
	}
	if results == nil {
		results = []model.PlaceSuggestion{}
	}

	for i := range results {
		results[i].Query = suggestionQuery(results[i])
	}

	return &model.SuggestResponse{Results: results}, nil
}

// suggestionQuery is the text the widget submits for a suggestion. The
// provider resolves "Name, Country" more reliably than a bare name.
func suggestionQuery(p model.PlaceSuggestion) string {
	if p.Country == "" {
		return p.Name
	}
	return p.Name + ", " + p.Country
}

// GetPlaceByID retrieves a place, or nil when it does not exist
func (s *Service) GetPlaceByID(ctx context.Context, id int) (*model.Place, error) {
	place, err := s.placeRepo.GetPlaceByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return place, nil
}

// IsValidationError reports whether err was caused by bad input rather than storage
func IsValidationError(err error) bool {
	return errors.Is(err, ErrQueryTooShort)
}
