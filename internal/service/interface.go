package service

import (
	"context"

	"github.com/alexivanou/forecast-widget/internal/model"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	SuggestPlaces(ctx context.Context, req model.SuggestRequest) (*model.SuggestResponse, error)
	GetPlaceByID(ctx context.Context, id int) (*model.Place, error)
}
