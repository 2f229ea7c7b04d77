package api

import (
	"github.com/alexivanou/forecast-widget/internal/stats"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new HTTP router. A nil gatherer leaves /metrics unrouted.
func NewRouter(handler *Handler, statsCollector *stats.Collector, gatherer prometheus.Gatherer) *mux.Router {
	statsHandler := NewStatsHandler(statsCollector, handler.logger)

	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	// Widget page
	router.HandleFunc("/", handler.Page).Methods("GET")
	router.HandleFunc("/search", handler.Search).Methods("POST")

	// API v1
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/widget", handler.GetWidget).Methods("GET")
	v1.HandleFunc("/widget/query", handler.SubmitQuery).Methods("POST")
	v1.HandleFunc("/forecast", handler.Forecast).Methods("GET")
	v1.HandleFunc("/suggest", handler.SuggestPlaces).Methods("GET")
	v1.HandleFunc("/places/{id}", handler.GetPlace).Methods("GET")
	v1.HandleFunc("/network", handler.GetNetwork).Methods("GET")
	v1.HandleFunc("/network", handler.ReportNetwork).Methods("POST")
	v1.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")

	return router
}
