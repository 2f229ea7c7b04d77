// Package widget holds the forecast view-model: the committed query, the
// request lifecycle and the rendering rules for the three widget views.
package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexivanou/forecast-widget/internal/metrics"
	"github.com/alexivanou/forecast-widget/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultLocation is used by Mount when no location is given.
const DefaultLocation = "Pune"

var (
	errEmptyQuery    = errors.New("empty location query")
	errEmptyForecast = errors.New("fetcher returned no forecast")
)

var tracer = otel.Tracer("github.com/alexivanou/forecast-widget/internal/widget")

// Fetcher issues the forecast request for a location
type Fetcher interface {
	Forecast(ctx context.Context, location string) (*model.ForecastResponse, error)
}

// Option configures a ViewModel
type Option func(*ViewModel)

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(vm *ViewModel) {
		vm.logger = logger
	}
}

// WithMetrics records fetch outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(vm *ViewModel) {
		vm.metrics = m
	}
}

// WithDefaultLocation overrides DefaultLocation.
func WithDefaultLocation(location string) Option {
	return func(vm *ViewModel) {
		if location != "" {
			vm.defaultLocation = location
		}
	}
}

// ViewModel owns one widget's request state. Every committed query bumps
// the generation; a fetch result is applied only while its generation is
// still current, so a slow superseded request can never overwrite a newer one.
type ViewModel struct {
	fetcher         Fetcher
	logger          *zap.Logger
	metrics         *metrics.Metrics
	defaultLocation string

	// notifyMu serializes subscriber calls
	notifyMu sync.Mutex

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	settled chan struct{}
	closed  bool
	nextSub int
	subs    map[int]func(State)

	wg sync.WaitGroup
}

// New creates an unmounted view-model.
func New(fetcher Fetcher, opts ...Option) *ViewModel {
	vm := &ViewModel{
		fetcher:         fetcher,
		logger:          zap.NewNop(),
		defaultLocation: DefaultLocation,
		subs:            make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Mount starts the first fetch, for location or the default location when empty.
func (vm *ViewModel) Mount(location string) uint64 {
	if strings.TrimSpace(location) == "" {
		location = vm.defaultLocation
	}
	return vm.Submit(location)
}

// Submit commits a query and schedules exactly one fetch for it. Any fetch
// still in flight is canceled and its result will be discarded. Submitting
// the current query again refetches it. Returns the new generation, or 0 if
// the view-model is closed.
func (vm *ViewModel) Submit(query string) uint64 {
	query = strings.TrimSpace(query)

	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return 0
	}
	if vm.cancel != nil {
		vm.cancel()
	}
	if vm.state.Phase == PhaseLoading && vm.settled != nil {
		// wake waiters on the superseded generation
		close(vm.settled)
	}

	ctx, cancel := context.WithCancel(context.Background())
	gen := vm.state.Generation + 1
	vm.cancel = cancel
	vm.settled = make(chan struct{})
	vm.state = State{Phase: PhaseLoading, Query: query, Generation: gen}
	snapshot := vm.state
	vm.wg.Add(1)
	vm.mu.Unlock()

	vm.notify(snapshot)
	go vm.fetch(ctx, gen, query)
	return gen
}

// State returns the current state.
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Wait blocks until the current generation settles or ctx is done. If a newer
// query is submitted while waiting, Wait follows it.
func (vm *ViewModel) Wait(ctx context.Context) (State, error) {
	for {
		vm.mu.Lock()
		st, ch := vm.state, vm.settled
		vm.mu.Unlock()

		if st.Phase != PhaseLoading || ch == nil {
			return st, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return vm.State(), ctx.Err()
		}
	}
}

// Subscribe registers fn to receive state changes. Calls are serialized and
// only ever carry the state that is current when the call starts, so a
// Loading state that settled before its notification ran is skipped and
// notifications never go back in time. fn must not call Submit or Mount.
func (vm *ViewModel) Subscribe(fn func(State)) (unsubscribe func()) {
	vm.mu.Lock()
	id := vm.nextSub
	vm.nextSub++
	vm.subs[id] = fn
	vm.mu.Unlock()

	return func() {
		vm.mu.Lock()
		delete(vm.subs, id)
		vm.mu.Unlock()
	}
}

// Close unmounts the view-model: the in-flight fetch is canceled, state is
// discarded and Close returns once the fetch goroutine has exited.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	if vm.cancel != nil {
		vm.cancel()
		vm.cancel = nil
	}
	if vm.state.Phase == PhaseLoading && vm.settled != nil {
		close(vm.settled)
	}
	vm.settled = nil
	vm.state = State{}
	vm.subs = make(map[int]func(State))
	vm.mu.Unlock()

	vm.wg.Wait()
}

func (vm *ViewModel) fetch(ctx context.Context, gen uint64, query string) {
	defer vm.wg.Done()

	ctx, span := tracer.Start(ctx, "widget.fetch", trace.WithAttributes(
		attribute.String("weather.location", query),
		attribute.Int64("widget.generation", int64(gen)),
	))
	defer span.End()

	start := time.Now()
	next := State{Phase: PhaseFailed, Query: query, Generation: gen, Error: FetchFailedMessage}
	var err error

	// the state leaves Loading however the fetch ends, panics included
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forecast fetch panicked: %v", r)
			next = State{Phase: PhaseFailed, Query: query, Generation: gen, Error: FetchFailedMessage}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
		}
		vm.settle(next, err, time.Since(start))
	}()

	if query == "" {
		err = errEmptyQuery
		return
	}

	forecast, err := vm.fetcher.Forecast(ctx, query)
	if err != nil {
		return
	}
	if forecast == nil {
		err = errEmptyForecast
		return
	}
	next = State{Phase: PhaseSucceeded, Query: query, Generation: gen, Forecast: forecast}
}

func (vm *ViewModel) settle(next State, err error, took time.Duration) {
	if !vm.apply(next) {
		vm.metrics.ObserveFetch(metrics.OutcomeStale, took)
		vm.logger.Debug("Discarding superseded forecast result",
			zap.String("location", next.Query),
			zap.Uint64("generation", next.Generation),
		)
		return
	}

	if err != nil {
		vm.metrics.ObserveFetch(metrics.OutcomeFailed, took)
		vm.logger.Error("Failed to fetch weather data",
			zap.String("location", next.Query),
			zap.Uint64("generation", next.Generation),
			zap.Error(err),
		)
		return
	}

	vm.metrics.ObserveFetch(metrics.OutcomeSucceeded, took)
	vm.logger.Info("Fetched weather data",
		zap.String("location", next.Query),
		zap.String("resolved", next.Forecast.Location.Name),
		zap.Uint64("generation", next.Generation),
		zap.Duration("took", took),
	)
}

// apply stores next if its generation is still current.
func (vm *ViewModel) apply(next State) bool {
	vm.mu.Lock()
	if vm.closed || next.Generation != vm.state.Generation {
		vm.mu.Unlock()
		return false
	}
	vm.state = next
	if vm.cancel != nil {
		vm.cancel()
		vm.cancel = nil
	}
	close(vm.settled)
	vm.settled = nil
	vm.mu.Unlock()

	vm.notify(next)
	return true
}

func (vm *ViewModel) notify(st State) {
	vm.notifyMu.Lock()
	defer vm.notifyMu.Unlock()

	vm.mu.Lock()
	if vm.state.Generation != st.Generation || vm.state.Phase != st.Phase {
		vm.mu.Unlock()
		return
	}
	subs := make([]func(State), 0, len(vm.subs))
	for _, fn := range vm.subs {
		subs = append(subs, fn)
	}
	vm.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
