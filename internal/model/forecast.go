package model

// ForecastResponse is the body returned by the forecast.json endpoint
type ForecastResponse struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
	Forecast Forecast `json:"forecast"`
}

// Location identifies the place the provider resolved the query to
type Location struct {
	Name           string  `json:"name"`
	Region         string  `json:"region"`
	Country        string  `json:"country"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	TzID           string  `json:"tz_id"`
	LocaltimeEpoch int64   `json:"localtime_epoch"`
	Localtime      string  `json:"localtime"`
}

// Current holds the current conditions block
type Current struct {
	LastUpdated string    `json:"last_updated"`
	TempC       float64   `json:"temp_c"`
	IsDay       int       `json:"is_day"`
	Condition   Condition `json:"condition"`
	WindKph     float64   `json:"wind_kph"`
	WindDegree  int       `json:"wind_degree"`
	WindDir     string    `json:"wind_dir"`
	Humidity    int       `json:"humidity"`
	Cloud       int       `json:"cloud"`
	FeelsLikeC  float64   `json:"feelslike_c"`
	WindChillC  float64   `json:"windchill_c"`
	HeatIndexC  float64   `json:"heatindex_c"`
	DewPointC   float64   `json:"dewpoint_c"`
	VisKm       float64   `json:"vis_km"`
	UV          float64   `json:"uv"`
}

// Condition is a provider weather condition with its icon
type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// Forecast wraps the daily forecast list
type Forecast struct {
	ForecastDay []ForecastDay `json:"forecastday"`
}

// ForecastDay is one day of the forecast window
type ForecastDay struct {
	Date string `json:"date"`
	Day  Day    `json:"day"`
}

// Day holds the daily aggregates for a forecast day
type Day struct {
	MaxTempC          float64   `json:"maxtemp_c"`
	MinTempC          float64   `json:"mintemp_c"`
	AvgTempC          float64   `json:"avgtemp_c"`
	MaxWindKph        float64   `json:"maxwind_kph"`
	TotalPrecipMm     float64   `json:"totalprecip_mm"`
	AvgVisKm          float64   `json:"avgvis_km"`
	AvgHumidity       float64   `json:"avghumidity"`
	DailyWillItRain   int       `json:"daily_will_it_rain"`
	DailyChanceOfRain int       `json:"daily_chance_of_rain"`
	Condition         Condition `json:"condition"`
}

// APIError is the body the provider sends with non-2xx responses
type APIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
