package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexivanou/forecast-widget/internal/api"
	"github.com/alexivanou/forecast-widget/internal/config"
	"github.com/alexivanou/forecast-widget/internal/database"
	"github.com/alexivanou/forecast-widget/internal/metrics"
	"github.com/alexivanou/forecast-widget/internal/repository"
	"github.com/alexivanou/forecast-widget/internal/seeder"
	"github.com/alexivanou/forecast-widget/internal/service"
	"github.com/alexivanou/forecast-widget/internal/session"
	"github.com/alexivanou/forecast-widget/internal/stats"
	"github.com/alexivanou/forecast-widget/internal/weatherapi"
	"github.com/alexivanou/forecast-widget/internal/widget"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const sessionSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Weather.APIKey == "" {
		logger.Warn("WEATHER_API_KEY is not set, every forecast request will be refused by the provider")
	}

	db, err := database.Connect(context.Background(), cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	if err := database.Migrate(db, cfg.DB, "migrations"); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos := repository.NewRepositories(db, cfg.DB.Type)
	autoSeed(ctx, db, repos, cfg, logger)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := weatherapi.New(cfg.Weather.APIKey, cfg.Weather.Timeout, weatherapi.WithBaseURL(cfg.Weather.BaseURL))
	newWidget := func() *widget.ViewModel {
		return widget.New(client,
			widget.WithLogger(logger.Named("widget")),
			widget.WithMetrics(m),
			widget.WithDefaultLocation(cfg.Weather.DefaultLocation),
		)
	}

	// each session carries its own connectivity gate, fed by its page's
	// online/offline reports
	store := session.NewStore(newWidget, cfg.Session.IdleTTL, logger.Named("session"), m)

	storeDone := make(chan struct{})
	go func() {
		store.Run(ctx, sessionSweepInterval)
		close(storeDone)
	}()

	handler := api.NewHandler(api.Dependencies{
		Service:    service.NewService(repos.Place),
		Sessions:   store,
		NewWidget:  newWidget,
		Locale:     cfg.Weather.Locale,
		SettleWait: cfg.Server.SettleWait,
		Logger:     logger.Named("api"),
	})
	collector := stats.NewCollector(db, cfg.DB).WithWidget(store)
	router := api.NewRouter(handler, collector, reg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, "forecast-widget"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	<-storeDone

	logger.Info("Server exited")
}

// autoSeed fills an empty place directory from DATA_DIR when the GeoNames
// dumps are present. Suggestions stay empty otherwise; the widget itself
// does not need the directory.
func autoSeed(ctx context.Context, db *sqlx.DB, repos *repository.Container, cfg *config.Config, logger *zap.Logger) {
	isEmpty, err := repository.IsDatabaseEmpty(ctx, db)
	if err != nil {
		logger.Warn("Failed to check if database is empty", zap.Error(err))
		return
	}
	if !isEmpty {
		return
	}

	parser := seeder.NewParser(cfg.Seeder)
	if !parser.Available() {
		logger.Info("Place directory is empty and no GeoNames data was found, suggestions are disabled",
			zap.String("data_dir", cfg.Seeder.DataDir))
		return
	}

	logger.Info("Database is empty, auto-seeding data...")
	result, err := seeder.Seed(ctx, parser, repos, logger)
	if err != nil {
		logger.Fatal("Failed to auto-seed database", zap.Error(err))
	}
	logger.Info("Database seeded successfully",
		zap.Int("countries", result.Countries),
		zap.Int("places", result.Places),
	)
}
