package widget

import "github.com/alexivanou/forecast-widget/internal/model"

// FetchFailedMessage is the only error text users ever see.
const FetchFailedMessage = "Failed to fetch weather data. Please check the location name and try again."

// Phase is the request lifecycle phase
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseFailed
	PhaseSucceeded
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseFailed:
		return "failed"
	case PhaseSucceeded:
		return "succeeded"
	default:
		return "idle"
	}
}

// State is the outcome of the most recent committed query.
// Forecast is set only when Phase is PhaseSucceeded and Error only when
// Phase is PhaseFailed.
type State struct {
	Phase      Phase
	Query      string
	Generation uint64
	Error      string
	Forecast   *model.ForecastResponse
}

// Settled reports whether the state has left Loading.
func (s State) Settled() bool {
	return s.Phase == PhaseFailed || s.Phase == PhaseSucceeded
}
