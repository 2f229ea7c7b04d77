package widget

import (
	"strings"

	"github.com/alexivanou/forecast-widget/internal/model"
)

// LoadingMessage is shown while a fetch is in flight.
const LoadingMessage = "Loading weather data..."

// ViewKind selects which of the widget views is shown
type ViewKind string

const (
	ViewIdle     ViewKind = "idle"
	ViewLoading  ViewKind = "loading"
	ViewError    ViewKind = "error"
	ViewForecast ViewKind = "forecast"
)

// View is everything a renderer needs for one frame of the widget.
// Current and Days are set only for ViewForecast.
type View struct {
	Kind       ViewKind      `json:"kind"`
	Query      string        `json:"query"`
	Generation uint64        `json:"generation"`
	Message    string        `json:"message,omitempty"`
	Current    *CurrentPanel `json:"current,omitempty"`
	Days       []DayRow      `json:"days,omitempty"`
}

// CurrentPanel is the current-conditions panel
type CurrentPanel struct {
	Name        string  `json:"name"`
	Region      string  `json:"region"`
	Country     string  `json:"country"`
	LastUpdated string  `json:"last_updated"`
	Condition   string  `json:"condition"`
	IconURL     string  `json:"icon_url"`
	Temp        int     `json:"temp_c"`
	FeelsLike   int     `json:"feelslike_c"`
	WindKph     float64 `json:"wind_kph"`
	Humidity    int     `json:"humidity"`
	UV          float64 `json:"uv"`
	VisKm       float64 `json:"vis_km"`
	Band        string  `json:"band"`
	BandClass   string  `json:"band_class"`
}

// DayRow is one row of the forecast list
type DayRow struct {
	Date         string `json:"date"`
	Label        string `json:"label"`
	Condition    string `json:"condition"`
	IconURL      string `json:"icon_url"`
	MaxTemp      int    `json:"maxtemp_c"`
	MinTemp      int    `json:"mintemp_c"`
	ChanceOfRain int    `json:"chance_of_rain"`
}

// Render selects the view for st. A nil formatter uses US English dates.
func Render(st State, dates *DateFormatter) View {
	if dates == nil {
		dates = NewDateFormatter()
	}

	v := View{Query: st.Query, Generation: st.Generation}
	switch st.Phase {
	case PhaseLoading:
		v.Kind = ViewLoading
		v.Message = LoadingMessage
	case PhaseFailed:
		v.Kind = ViewError
		v.Message = st.Error
	case PhaseSucceeded:
		if st.Forecast == nil {
			v.Kind = ViewError
			v.Message = FetchFailedMessage
			return v
		}
		v.Kind = ViewForecast
		v.Current = currentPanel(st.Forecast)
		v.Days = dayRows(st.Forecast.Forecast.ForecastDay, dates)
	default:
		v.Kind = ViewIdle
	}
	return v
}

func currentPanel(f *model.ForecastResponse) *CurrentPanel {
	band := TemperatureBand(f.Current.TempC)
	return &CurrentPanel{
		Name:        f.Location.Name,
		Region:      f.Location.Region,
		Country:     f.Location.Country,
		LastUpdated: f.Current.LastUpdated,
		Condition:   strings.TrimSpace(f.Current.Condition.Text),
		IconURL:     IconURL(f.Current.Condition.Icon),
		Temp:        RoundTemp(f.Current.TempC),
		FeelsLike:   RoundTemp(f.Current.FeelsLikeC),
		WindKph:     f.Current.WindKph,
		Humidity:    f.Current.Humidity,
		UV:          f.Current.UV,
		VisKm:       f.Current.VisKm,
		Band:        band.Name,
		BandClass:   band.Class,
	}
}

func dayRows(days []model.ForecastDay, dates *DateFormatter) []DayRow {
	rows := make([]DayRow, 0, len(days))
	for _, d := range days {
		rows = append(rows, DayRow{
			Date:         d.Date,
			Label:        dates.Format(d.Date),
			Condition:    strings.TrimSpace(d.Day.Condition.Text),
			IconURL:      IconURL(d.Day.Condition.Icon),
			MaxTemp:      RoundTemp(d.Day.MaxTempC),
			MinTemp:      RoundTemp(d.Day.MinTempC),
			ChanceOfRain: d.Day.DailyChanceOfRain,
		})
	}
	return rows
}

// Location returns "Region, Country", skipping empty parts.
func (p *CurrentPanel) Location() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{p.Region, p.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
