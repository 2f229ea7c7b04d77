package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alexivanou/forecast-widget/internal/metrics"
	"github.com/alexivanou/forecast-widget/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFetcher implements Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Forecast(ctx context.Context, location string) (*model.ForecastResponse, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ForecastResponse), args.Error(1)
}

// gatedFetcher blocks each location until the test releases it.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: make(map[string]chan struct{}), started: make(chan string, 16)}
}

func (g *gatedFetcher) gate(location string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[location]
	if !ok {
		ch = make(chan struct{})
		g.gates[location] = ch
	}
	return ch
}

func (g *gatedFetcher) release(location string) {
	close(g.gate(location))
}

// Forecast ignores ctx on purpose so a superseded request still resolves late.
func (g *gatedFetcher) Forecast(_ context.Context, location string) (*model.ForecastResponse, error) {
	g.started <- location
	<-g.gate(location)
	return sampleForecast(location, 25), nil
}

func sampleForecast(name string, tempC float64) *model.ForecastResponse {
	f := &model.ForecastResponse{
		Location: model.Location{Name: name, Region: "Region", Country: "Country"},
		Current: model.Current{
			LastUpdated: "2024-03-04 13:45",
			TempC:       tempC,
			FeelsLikeC:  tempC - 1.2,
			Condition:   model.Condition{Text: "Sunny", Icon: "//cdn.weatherapi.com/weather/64x64/day/113.png", Code: 1000},
			WindKph:     11.2,
			Humidity:    18,
			UV:          8,
			VisKm:       10,
		},
	}
	for i := 0; i < 4; i++ {
		f.Forecast.ForecastDay = append(f.Forecast.ForecastDay, model.ForecastDay{
			Date: fmt.Sprintf("2024-03-%02d", 4+i),
			Day: model.Day{
				MaxTempC:          30.5 + float64(i),
				MinTempC:          17.4,
				DailyChanceOfRain: 10 * i,
				Condition:         model.Condition{Text: "Partly cloudy ", Icon: "//cdn.weatherapi.com/weather/64x64/day/116.png"},
			},
		})
	}
	return f
}

func waitSettled(t *testing.T, vm *ViewModel) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := vm.Wait(ctx)
	require.NoError(t, err)
	return st
}

func TestViewModel_MountUsesDefaultLocation(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Forecast", mock.Anything, "Pune").Return(sampleForecast("Pune", 31.6), nil)

	vm := New(fetcher)
	defer vm.Close()

	assert.Equal(t, PhaseIdle, vm.State().Phase)
	gen := vm.Mount("")
	assert.Equal(t, uint64(1), gen)

	st := waitSettled(t, vm)
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, "Pune", st.Query)
	assert.Empty(t, st.Error)
	require.NotNil(t, st.Forecast)
	assert.Equal(t, "Pune", st.Forecast.Location.Name)
	fetcher.AssertExpectations(t)
}

func TestViewModel_ConfiguredDefaultLocation(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Forecast", mock.Anything, "Dublin").Return(sampleForecast("Dublin", 12), nil)

	vm := New(fetcher, WithDefaultLocation("Dublin"))
	defer vm.Close()

	vm.Mount("  ")
	st := waitSettled(t, vm)
	assert.Equal(t, "Dublin", st.Query)
}

func TestViewModel_LoadingThenSucceeded(t *testing.T) {
	fetcher := newGatedFetcher()
	vm := New(fetcher)
	defer vm.Close()

	var mu sync.Mutex
	var phases []Phase
	vm.Subscribe(func(st State) {
		mu.Lock()
		phases = append(phases, st.Phase)
		mu.Unlock()
	})

	vm.Submit("Berlin")
	<-fetcher.started
	assert.Equal(t, PhaseLoading, vm.State().Phase)
	assert.Nil(t, vm.State().Forecast)

	fetcher.release("Berlin")
	st := waitSettled(t, vm)
	assert.Equal(t, PhaseSucceeded, st.Phase)

	// notifications are delivered after the state is stored
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(phases) == 2
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{PhaseLoading, PhaseSucceeded}, phases)
}

func TestViewModel_FailureDiscardsPreviousData(t *testing.T) {
	failures := []error{
		errors.New("connection refused"),
		context.DeadlineExceeded,
		fmt.Errorf("malformed: %w", errors.New("unexpected EOF")),
	}

	for _, failure := range failures {
		t.Run(failure.Error(), func(t *testing.T) {
			fetcher := new(MockFetcher)
			fetcher.On("Forecast", mock.Anything, "Pune").Return(sampleForecast("Pune", 31.6), nil)
			fetcher.On("Forecast", mock.Anything, "Atlantis").Return(nil, failure)

			vm := New(fetcher)
			defer vm.Close()

			vm.Mount("")
			require.Equal(t, PhaseSucceeded, waitSettled(t, vm).Phase)

			vm.Submit("Atlantis")
			st := waitSettled(t, vm)
			assert.Equal(t, PhaseFailed, st.Phase)
			assert.Equal(t, FetchFailedMessage, st.Error)
			assert.Nil(t, st.Forecast, "stale data must not survive a failure")
		})
	}
}

func TestViewModel_EmptyQueryFailsWithoutCall(t *testing.T) {
	fetcher := new(MockFetcher)
	vm := New(fetcher)
	defer vm.Close()

	vm.Submit("   ")
	st := waitSettled(t, vm)

	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, FetchFailedMessage, st.Error)
	fetcher.AssertNotCalled(t, "Forecast", mock.Anything, mock.Anything)
}

func TestViewModel_ResubmitRefetches(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Forecast", mock.Anything, "Pune").Return(nil, errors.New("offline")).Once()
	fetcher.On("Forecast", mock.Anything, "Pune").Return(sampleForecast("Pune", 20), nil).Once()

	vm := New(fetcher)
	defer vm.Close()

	vm.Submit("Pune")
	assert.Equal(t, PhaseFailed, waitSettled(t, vm).Phase)

	vm.Submit("Pune")
	st := waitSettled(t, vm)
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, uint64(2), st.Generation)
	fetcher.AssertNumberOfCalls(t, "Forecast", 2)
}

func TestViewModel_StaleResultIsDiscarded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	fetcher := newGatedFetcher()
	vm := New(fetcher, WithMetrics(m))
	defer vm.Close()

	vm.Submit("Old Town")
	require.Equal(t, "Old Town", <-fetcher.started)

	vm.Submit("New Town")
	require.Equal(t, "New Town", <-fetcher.started)

	// newer request settles first, then the older one resolves late
	fetcher.release("New Town")
	st := waitSettled(t, vm)
	require.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, "New Town", st.Forecast.Location.Name)

	fetcher.release("Old Town")
	assert.Eventually(t, func() bool {
		return fetchCount(t, reg, metrics.OutcomeStale) == 1
	}, 2*time.Second, 10*time.Millisecond)

	st = vm.State()
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, "New Town", st.Query)
	assert.Equal(t, "New Town", st.Forecast.Location.Name)
	assert.Equal(t, uint64(2), st.Generation)
}

func TestViewModel_StaleResultCannotEndNewerLoading(t *testing.T) {
	fetcher := newGatedFetcher()
	vm := New(fetcher)
	defer vm.Close()

	vm.Submit("Old Town")
	<-fetcher.started
	vm.Submit("New Town")
	<-fetcher.started

	fetcher.release("Old Town")
	// give the superseded goroutine time to resolve
	time.Sleep(50 * time.Millisecond)
	st := vm.State()
	assert.Equal(t, PhaseLoading, st.Phase)
	assert.Equal(t, "New Town", st.Query)

	fetcher.release("New Town")
	st = waitSettled(t, vm)
	assert.Equal(t, "New Town", st.Forecast.Location.Name)
}

func TestViewModel_SubmitCancelsSupersededContext(t *testing.T) {
	fetcher := new(MockFetcher)
	canceled := make(chan struct{})
	fetcher.On("Forecast", mock.Anything, "Slow").Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		<-ctx.Done()
		close(canceled)
	}).Return(nil, context.Canceled)
	fetcher.On("Forecast", mock.Anything, "Fast").Return(sampleForecast("Fast", 5), nil)

	vm := New(fetcher)
	defer vm.Close()

	vm.Submit("Slow")
	vm.Submit("Fast")

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded fetch was not canceled")
	}
	st := waitSettled(t, vm)
	assert.Equal(t, "Fast", st.Query)
	assert.Equal(t, PhaseSucceeded, st.Phase)
}

func TestViewModel_PanicSettlesAsFailure(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Forecast", mock.Anything, "Boom").Run(func(mock.Arguments) {
		panic("decoder exploded")
	}).Return(nil, nil)

	vm := New(fetcher)
	defer vm.Close()

	vm.Submit("Boom")
	st := waitSettled(t, vm)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, FetchFailedMessage, st.Error)
}

func TestViewModel_NilForecastSettlesAsFailure(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Forecast", mock.Anything, "Nowhere").Return(nil, nil)

	reg := prometheus.NewRegistry()
	vm := New(fetcher, WithMetrics(metrics.New(reg)))
	defer vm.Close()

	vm.Submit("Nowhere")
	st := waitSettled(t, vm)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, FetchFailedMessage, st.Error)
	assert.Nil(t, st.Forecast)
	assert.Equal(t, 1.0, fetchCount(t, reg, metrics.OutcomeFailed))
}

func TestViewModel_NotificationsNeverGoBack(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Forecast", mock.Anything, mock.Anything).Return(sampleForecast("Pune", 25), nil)

	vm := New(fetcher)
	defer vm.Close()

	var mu sync.Mutex
	var events []State
	vm.Subscribe(func(st State) {
		mu.Lock()
		events = append(events, st)
		mu.Unlock()
	})

	for i := 0; i < 200; i++ {
		vm.Submit(fmt.Sprintf("Pune %d", i))
		waitSettled(t, vm)
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		require.GreaterOrEqual(t, cur.Generation, prev.Generation, "event %d", i)
		if cur.Generation == prev.Generation {
			assert.Equal(t, PhaseLoading, prev.Phase, "event %d", i)
			assert.Equal(t, PhaseSucceeded, cur.Phase, "event %d", i)
		}
	}
}

func TestViewModel_CloseDiscardsState(t *testing.T) {
	fetcher := newGatedFetcher()
	vm := New(fetcher)

	vm.Submit("Pune")
	<-fetcher.started

	done := make(chan struct{})
	go func() {
		vm.Close()
		close(done)
	}()
	// Close waits for the fetch goroutine, which ignores ctx here
	fetcher.release("Pune")
	<-done

	assert.Equal(t, PhaseIdle, vm.State().Phase)
	assert.Equal(t, uint64(0), vm.Submit("Later"))

	st, err := vm.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, st.Phase)
}

func TestViewModel_WaitHonorsContext(t *testing.T) {
	fetcher := newGatedFetcher()
	vm := New(fetcher)
	defer func() {
		fetcher.release("Pune")
		vm.Close()
	}()

	vm.Submit("Pune")
	<-fetcher.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	st, err := vm.Wait(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, PhaseLoading, st.Phase)
}

func fetchCount(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "forecast_widget_fetches_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
