package model

// Place represents a city in the place directory
type Place struct {
	ID          int     `json:"id" db:"id"`
	CountryCode string  `json:"country_code" db:"country_code"`
	Name        string  `json:"name" db:"name"`
	Population  int     `json:"population" db:"population"`
	Lat         float64 `json:"lat" db:"lat"`
	Lon         float64 `json:"lon" db:"lon"`
	Timezone    *string `json:"timezone,omitempty" db:"timezone"`
}

// Country represents a country in the place directory
type Country struct {
	Code string `db:"code"`
	Name string `db:"name"`
}

// SuggestRequest represents the request parameters for place suggestions
type SuggestRequest struct {
	Query string
	Limit int
}

// SuggestResponse is returned by the suggest endpoint
type SuggestResponse struct {
	Results []PlaceSuggestion `json:"results"`
}

// PlaceSuggestion is a place the search input can offer.
// Query is the string to submit to the widget for this place.
type PlaceSuggestion struct {
	ID          int     `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Country     string  `json:"country" db:"country"`
	CountryCode string  `json:"country_code" db:"country_code"`
	Population  int     `json:"population" db:"population"`
	Lat         float64 `json:"lat" db:"lat"`
	Lon         float64 `json:"lon" db:"lon"`
	Query       string  `json:"query" db:"-"`
}
