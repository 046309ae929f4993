// internal/api/handler/api/symbols.go
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/newthinker/insight/internal/api/response"
	"github.com/newthinker/insight/internal/app"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/forecast"
)

// SymbolApp defines the interface needed from app.App.
type SymbolApp interface {
	Quote(ctx context.Context, symbol string) (*core.Quote, error)
	Indicators(ctx context.Context, symbol string) (*app.IndicatorReport, error)
	Predict(ctx context.Context, symbol string, days int) (*forecast.Result, error)
	Sentiment(ctx context.Context, symbol, name string) (*app.SentimentReport, error)
	Overview(ctx context.Context, symbol, name string, days int) (*app.Overview, error)
	MaxHorizon() int
}

// SymbolHandler serves the per-symbol analysis endpoints.
type SymbolHandler struct {
	app SymbolApp
}

// NewSymbolHandler creates a new symbol handler.
func NewSymbolHandler(app SymbolApp) *SymbolHandler {
	return &SymbolHandler{app: app}
}

// Quote handles GET /api/v1/symbols/{symbol}/quote
func (h *SymbolHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.app.Quote(r.Context(), r.PathValue("symbol"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, q)
}

// Indicators handles GET /api/v1/symbols/{symbol}/indicators
func (h *SymbolHandler) Indicators(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Indicators(r.Context(), r.PathValue("symbol"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

// Prediction handles GET /api/v1/symbols/{symbol}/prediction?days=N
func (h *SymbolHandler) Prediction(w http.ResponseWriter, r *http.Request) {
	days, err := h.days(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	result, err := h.app.Predict(r.Context(), r.PathValue("symbol"), days)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// Sentiment handles GET /api/v1/symbols/{symbol}/sentiment?name=
func (h *SymbolHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Sentiment(r.Context(), r.PathValue("symbol"), r.URL.Query().Get("name"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

// Overview handles GET /api/v1/symbols/{symbol}/overview?days=N&name=
func (h *SymbolHandler) Overview(w http.ResponseWriter, r *http.Request) {
	days, err := h.days(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	ov, err := h.app.Overview(r.Context(), r.PathValue("symbol"), r.URL.Query().Get("name"), days)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, ov)
}

// days reads the horizon query parameter, defaulting to the maximum.
func (h *SymbolHandler) days(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return h.app.MaxHorizon(), nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.WrapError(core.ErrInvalidHorizon, err)
	}
	return days, nil
}
