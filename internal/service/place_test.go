package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alexivanou/forecast-widget/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPlaceRepository implements repository.PlaceRepository interface
type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) SearchPlaces(ctx context.Context, query string, limit int) ([]model.PlaceSuggestion, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PlaceSuggestion), args.Error(1)
}

func (m *MockPlaceRepository) GetPlaceByID(ctx context.Context, id int) (*model.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Place), args.Error(1)
}

func (m *MockPlaceRepository) BulkInsertPlaces(ctx context.Context, places []model.Place) error {
	args := m.Called(ctx, places)
	return args.Error(0)
}

func TestService_SuggestPlaces(t *testing.T) {
	tests := []struct {
		name            string
		req             model.SuggestRequest
		setupMocks      func(*MockPlaceRepository)
		expectedError   string
		expectedQueries []string
	}{
		{
			name: "successful search",
			req:  model.SuggestRequest{Query: "Dub", Limit: 5},
			setupMocks: func(repo *MockPlaceRepository) {
				repo.On("SearchPlaces", mock.Anything, "Dub", 5).Return([]model.PlaceSuggestion{
					{ID: 1, Name: "Dublin", Country: "Ireland", CountryCode: "IE", Population: 1024027},
					{ID: 2, Name: "Dubai", CountryCode: "AE", Population: 3478300},
				}, nil)
			},
			expectedQueries: []string{"Dublin, Ireland", "Dubai"},
		},
		{
			name: "default limit and trimmed query",
			req:  model.SuggestRequest{Query: "  Pu "},
			setupMocks: func(repo *MockPlaceRepository) {
				repo.On("SearchPlaces", mock.Anything, "Pu", defaultLimit).Return(nil, nil)
			},
			expectedQueries: []string{},
		},
		{
			name: "limit is capped",
			req:  model.SuggestRequest{Query: "Ber", Limit: 500},
			setupMocks: func(repo *MockPlaceRepository) {
				repo.On("SearchPlaces", mock.Anything, "Ber", maxLimit).Return([]model.PlaceSuggestion{}, nil)
			},
			expectedQueries: []string{},
		},
		{
			name:          "query too short",
			req:           model.SuggestRequest{Query: "D"},
			expectedError: "query must be at least 2 characters",
		},
		{
			name:          "empty query",
			req:           model.SuggestRequest{Query: "   "},
			expectedError: "query must be at least 2 characters",
		},
		{
			name: "repository failure",
			req:  model.SuggestRequest{Query: "Pune"},
			setupMocks: func(repo *MockPlaceRepository) {
				repo.On("SearchPlaces", mock.Anything, "Pune", defaultLimit).Return(nil, errors.New("db down"))
			},
			expectedError: "failed to search places",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPlaceRepository)
			if tt.setupMocks != nil {
				tt.setupMocks(repo)
			}

			svc := NewService(repo)
			resp, err := svc.SuggestPlaces(context.Background(), tt.req)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
				queries := []string{}
				for _, r := range resp.Results {
					queries = append(queries, r.Query)
				}
				assert.Equal(t, tt.expectedQueries, queries)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_SuggestPlaces_ValidationError(t *testing.T) {
	svc := NewService(new(MockPlaceRepository))

	_, err := svc.SuggestPlaces(context.Background(), model.SuggestRequest{Query: "x"})
	assert.True(t, IsValidationError(err))
}

func TestService_GetPlaceByID(t *testing.T) {
	repo := new(MockPlaceRepository)
	repo.On("GetPlaceByID", mock.Anything, 3).Return(&model.Place{ID: 3, Name: "Pune"}, nil)
	repo.On("GetPlaceByID", mock.Anything, 4).Return(nil, nil)

	svc := NewService(repo)

	place, err := svc.GetPlaceByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Pune", place.Name)

	missing, err := svc.GetPlaceByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
