package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/alexivanou/forecast-widget/internal/widget"
)

// OfflineMessage is the whole page body while the client is offline
const OfflineMessage = "Offline"

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type pageData struct {
	Online bool
	View   *widget.View
}

func (d pageData) OfflineMessage() string {
	return OfflineMessage
}

// Refresh reports whether the page should reload itself to pick up a
// fetch that was still in flight when it rendered.
func (d pageData) Refresh() bool {
	return d.View != nil && d.View.Kind == widget.ViewLoading
}

// Draft is the initial text of the search input.
func (d pageData) Draft() string {
	if d.View == nil {
		return ""
	}
	return d.View.Query
}

func renderPage(w http.ResponseWriter, data pageData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return pageTemplate.Execute(w, data)
}
