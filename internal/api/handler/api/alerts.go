// internal/api/handler/api/alerts.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/insight/internal/api/response"
	"github.com/newthinker/insight/internal/app"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/storage/history"
)

const defaultAlertLimit = 50

// AlertsApp defines the interface needed from app.App.
type AlertsApp interface {
	Alerts(ctx context.Context, filter history.ListFilter) (*app.AlertList, error)
	Alert(ctx context.Context, id string) (*core.Alert, error)
}

// AlertsHandler handles fired alert API requests.
type AlertsHandler struct {
	app AlertsApp
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(app AlertsApp) *AlertsHandler {
	return &AlertsHandler{app: app}
}

// List returns alerts matching query parameters.
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := history.ListFilter{
		Symbol:   q.Get("symbol"),
		Rule:     q.Get("rule"),
		Severity: core.Severity(q.Get("severity")),
		From:     parseTime(q.Get("from")),
		To:       parseTime(q.Get("to")),
		Limit:    defaultAlertLimit,
	}

	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	list, err := h.app.Alerts(r.Context(), filter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"alerts": list.Alerts,
		"total":  list.Total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// Get handles GET /api/v1/alerts/{id}
func (h *AlertsHandler) Get(w http.ResponseWriter, r *http.Request) {
	alert, err := h.app.Alert(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, alert)
}

// parseTime accepts RFC 3339 or a bare date; anything else is ignored.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}
