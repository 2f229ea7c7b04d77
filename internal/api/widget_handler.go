package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/alexivanou/forecast-widget/internal/session"
	"github.com/alexivanou/forecast-widget/internal/widget"
	"go.uber.org/zap"
)

// SessionCookie carries the widget session id
const SessionCookie = "forecast_session"

const sessionCookieMaxAge = 24 * time.Hour

// WidgetResponse is the JSON shape of the widget endpoints. View is absent
// while the caller's session reports itself offline.
type WidgetResponse struct {
	Online bool         `json:"online"`
	View   *widget.View `json:"view,omitempty"`
}

// QueryRequest is the body of POST /api/v1/widget/query
type QueryRequest struct {
	Query string `json:"query"`
}

// Page handles GET /. A session that reported itself offline sees only the
// offline view and holds no widget.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	var data pageData
	if vm := h.acquire(w, r).Widget(); vm != nil {
		view := widget.Render(h.waitSettled(r.Context(), vm), h.dateFormatter(r))
		data = pageData{Online: true, View: &view}
	}

	if err := renderPage(w, data); err != nil {
		h.logger.Error("Error rendering page", zap.Error(err))
	}
}

// Search handles POST /search form submits from the search input. Typing only
// edits the draft in the browser; this is the commit.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if vm := h.acquire(w, r).Widget(); vm != nil {
		vm.Submit(r.PostForm.Get("q"))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GetWidget handles GET /api/v1/widget
func (h *Handler) GetWidget(w http.ResponseWriter, r *http.Request) {
	vm := h.acquire(w, r).Widget()
	if vm == nil {
		h.writeJSON(w, http.StatusOK, WidgetResponse{Online: false})
		return
	}

	view := widget.Render(vm.State(), h.dateFormatter(r))
	h.writeJSON(w, http.StatusOK, WidgetResponse{Online: true, View: &view})
}

// SubmitQuery handles POST /api/v1/widget/query
func (h *Handler) SubmitQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	vm := h.acquire(w, r).Widget()
	if vm == nil {
		http.Error(w, "client is offline", http.StatusConflict)
		return
	}

	vm.Submit(req.Query)
	view := widget.Render(vm.State(), h.dateFormatter(r))
	h.writeJSON(w, http.StatusAccepted, WidgetResponse{Online: true, View: &view})
}

// acquire returns the caller's session, creating one and setting the cookie
// when the request carries no live session.
func (h *Handler) acquire(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	sess, created := h.sessions.Acquire(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(sessionCookieMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (h *Handler) lookup(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return h.sessions.Lookup(c.Value)
}
