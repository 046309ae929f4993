package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/newthinker/insight/internal/api/response"
	"github.com/newthinker/insight/internal/app"
	"github.com/newthinker/insight/internal/core"
)

const maxWatchlistBody = 4 << 10

// WatchlistApp is the part of app.App the watchlist routes use.
type WatchlistApp interface {
	Watchlist() []app.WatchlistItem
	AddToWatchlist(symbol, name string) bool
	RemoveFromWatchlist(symbol string) bool
}

type WatchlistHandler struct {
	app WatchlistApp
}

func NewWatchlistHandler(app WatchlistApp) *WatchlistHandler {
	return &WatchlistHandler{app: app}
}

// AddRequest is the body of POST /api/v1/watchlist.
type AddRequest struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// List handles GET /api/v1/watchlist.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.app.Watchlist()
	response.JSON(w, http.StatusOK, map[string]any{
		"symbols": items,
		"count":   len(items),
	})
}

// Add handles POST /api/v1/watchlist. A new symbol answers 201, one that is
// already watched answers 200.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWatchlistBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		response.Fail(w, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("decode body: %w", err)))
		return
	}
	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.Symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("symbol is required")))
		return
	}

	added := h.app.AddToWatchlist(req.Symbol, strings.TrimSpace(req.Name))
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	response.JSON(w, status, map[string]any{"symbol": req.Symbol, "added": added})
}

// Remove handles DELETE /api/v1/watchlist/{symbol}.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if !h.app.RemoveFromWatchlist(symbol) {
		response.Fail(w, core.WrapError(core.ErrNotFound, fmt.Errorf("%s is not on the watchlist", symbol)))
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"symbol": symbol, "removed": true})
}
