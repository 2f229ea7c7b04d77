package service

import (
	"github.com/alexivanou/forecast-widget/internal/repository"
)

// Service provides business logic for the place directory
type Service struct {
	placeRepo repository.PlaceRepository
}

// NewService creates a new service instance
func NewService(placeRepo repository.PlaceRepository) *Service {
	return &Service{
		placeRepo: placeRepo,
	}
}
