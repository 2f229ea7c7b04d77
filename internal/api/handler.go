package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/alexivanou/forecast-widget/internal/model"
	"github.com/alexivanou/forecast-widget/internal/service"
	"github.com/alexivanou/forecast-widget/internal/session"
	"github.com/alexivanou/forecast-widget/internal/widget"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const defaultSettleWait = 3 * time.Second

// Handler handles HTTP requests
type Handler struct {
	service    service.ServiceInterface
	sessions   *session.Store
	newWidget  session.Factory
	locale     string
	settleWait time.Duration
	logger     *zap.Logger
}

// Dependencies are the components a Handler serves
type Dependencies struct {
	Service service.ServiceInterface
	// Sessions holds each browser's widget and connectivity gate.
	Sessions *session.Store
	// NewWidget builds the unmounted view-model used by one-shot forecasts.
	NewWidget  session.Factory
	Locale     string
	SettleWait time.Duration
	Logger     *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	settleWait := deps.SettleWait
	if settleWait <= 0 {
		settleWait = defaultSettleWait
	}
	return &Handler{
		service:    deps.Service,
		sessions:   deps.Sessions,
		newWidget:  deps.NewWidget,
		locale:     deps.Locale,
		settleWait: settleWait,
		logger:     logger,
	}
}

// SuggestPlaces handles GET /api/v1/suggest
func (h *Handler) SuggestPlaces(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	var limit int
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
	}

	response, err := h.service.SuggestPlaces(r.Context(), model.SuggestRequest{Query: query, Limit: limit})
	if err != nil {
		if service.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Error suggesting places", zap.String("query", query), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

// GetPlace handles GET /api/v1/places/{id}
func (h *Handler) GetPlace(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid place id", http.StatusBadRequest)
		return
	}

	place, err := h.service.GetPlaceByID(r.Context(), id)
	if err != nil {
		h.logger.Error("Error getting place", zap.Int("id", id), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if place == nil {
		http.Error(w, "place not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, place)
}

// Forecast handles GET /api/v1/forecast. It runs one fetch through a
// throwaway view-model and returns the rendered view.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	vm := h.newWidget()
	defer vm.Close()
	vm.Submit(query)

	st, err := vm.Wait(r.Context())
	if err != nil {
		// client went away
		h.logger.Debug("Forecast request canceled", zap.String("query", query), zap.Error(err))
		return
	}

	view := widget.Render(st, h.dateFormatter(r))
	status := http.StatusOK
	if view.Kind == widget.ViewError {
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, view)
}

// NetworkReport is the body of POST /api/v1/network
type NetworkReport struct {
	Online *bool `json:"online"`
}

// NetworkStatus is returned by the connectivity endpoints
type NetworkStatus struct {
	Online bool `json:"online"`
}

// ReportNetwork handles POST /api/v1/network. The report only affects the
// caller's own session.
func (h *Handler) ReportNetwork(w http.ResponseWriter, r *http.Request) {
	var report NetworkReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil || report.Online == nil {
		http.Error(w, "body must be {\"online\": true|false}", http.StatusBadRequest)
		return
	}

	sess := h.acquire(w, r)
	sess.Report(*report.Online)
	h.writeJSON(w, http.StatusOK, NetworkStatus{Online: sess.IsOnline()})
}

// GetNetwork handles GET /api/v1/network. Callers without a session are
// assumed online.
func (h *Handler) GetNetwork(w http.ResponseWriter, r *http.Request) {
	status := NetworkStatus{Online: true}
	if sess, ok := h.lookup(r); ok {
		status.Online = sess.IsOnline()
	}
	h.writeJSON(w, http.StatusOK, status)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// dateFormatter prefers the client's Accept-Language and falls back to the
// configured locale.
func (h *Handler) dateFormatter(r *http.Request) *widget.DateFormatter {
	return widget.NewDateFormatter(r.Header.Get("Accept-Language"), h.locale)
}

// waitSettled waits at most settleWait for the view-model's current fetch.
func (h *Handler) waitSettled(ctx context.Context, vm *widget.ViewModel) widget.State {
	ctx, cancel := context.WithTimeout(ctx, h.settleWait)
	defer cancel()
	st, _ := vm.Wait(ctx)
	return st
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding response", zap.Error(err))
	}
}
