package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/newthinker/insight/internal/cache"
	"github.com/newthinker/insight/internal/collector"
	"go.uber.org/zap"
)

// SetInterval sets the refresh interval
func (a *App) SetInterval(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interval = d
}

// Watchlist returns a copy of the watchlist.
func (a *App) Watchlist() []WatchlistItem {
	a.mu.RLock()
	defer a.mu.RUnlock()
	result := make([]WatchlistItem, len(a.watchlistItems))
	copy(result, a.watchlistItems)
	return result
}

// AddToWatchlist adds a symbol to the watchlist. It reports false when the
// symbol is invalid or already present.
func (a *App) AddToWatchlist(symbol, name string) bool {
	s, err := a.NormalizeSymbol(symbol)
	if err != nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.watchlistSet[s]; exists {
		return false
	}
	a.watchlistSet[s] = struct{}{}
	a.watchlistItems = append(a.watchlistItems, WatchlistItem{Symbol: s, Name: name})
	if a.metrics != nil {
		a.metrics.SetWatchlistSize(len(a.watchlistItems))
	}
	return true
}

// RemoveFromWatchlist removes a symbol from the watchlist.
func (a *App) RemoveFromWatchlist(symbol string) bool {
	s, err := a.NormalizeSymbol(symbol)
	if err != nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.watchlistSet[s]; !exists {
		return false
	}
	delete(a.watchlistSet, s)
	for i, item := range a.watchlistItems {
		if item.Symbol == s {
			a.watchlistItems = append(a.watchlistItems[:i], a.watchlistItems[i+1:]...)
			break
		}
	}
	if a.metrics != nil {
		a.metrics.SetWatchlistSize(len(a.watchlistItems))
	}
	return true
}

// Start runs the refresh loop until ctx is cancelled or Stop is called.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	interval := a.interval
	count := len(a.watchlistItems)
	a.mu.Unlock()

	a.logger.Info("refresh loop starting",
		zap.Int("watchlist_count", count),
		zap.Duration("interval", interval),
	)

	// Initial run
	a.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("refresh loop stopped")
			a.mu.Lock()
			a.running = false
			a.cancel = nil
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

// Stop stops the refresh loop
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// Running reports whether the refresh loop is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// RunOnce refreshes every watchlist symbol: cached artifacts are dropped and
// recomputed so readers see fresh values.
func (a *App) RunOnce(ctx context.Context) {
	items := a.Watchlist()
	if len(items) == 0 {
		a.logger.Debug("no symbols in watchlist")
		return
	}

	a.logger.Debug("starting refresh cycle", zap.Int("symbols", len(items)))
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		a.refreshSymbol(ctx, item)
	}
	if a.metrics != nil {
		a.metrics.RecordRefreshCycle()
	}
}

func (a *App) refreshSymbol(ctx context.Context, item WatchlistItem) {
	days := a.cfg.Refresh.Days
	if days < 1 || days > a.MaxHorizon() {
		days = a.MaxHorizon()
	}
	a.invalidate(ctx, item, days)

	var snap snapshot
	var err error
	if snap.quote, err = a.Quote(ctx, item.Symbol); err != nil {
		a.logger.Warn("refresh quote failed", zap.String("symbol", item.Symbol), zap.Error(err))
	}
	if snap.prediction, err = a.Predict(ctx, item.Symbol, days); err != nil {
		a.logger.Warn("refresh prediction failed", zap.String("symbol", item.Symbol), zap.Error(err))
	}
	if a.news != nil {
		if snap.sentiment, err = a.Sentiment(ctx, item.Symbol, item.Name); err != nil {
			a.logger.Warn("refresh sentiment failed", zap.String("symbol", item.Symbol), zap.Error(err))
		}
	}

	if a.alerts == nil {
		return
	}
	if snap.indicators, err = a.Indicators(ctx, item.Symbol); err != nil {
		a.logger.Debug("refresh indicators failed", zap.String("symbol", item.Symbol), zap.Error(err))
	}
	a.evaluateAlerts(ctx, item.Symbol, snap)
}

func (a *App) invalidate(ctx context.Context, item WatchlistItem, days int) {
	if a.cache == nil {
		return
	}
	query := item.Name
	if query == "" {
		query = collector.DisplayName(item.Symbol)
	}
	period := a.cfg.Collector.Period
	if period == "" {
		period = "1y"
	}
	keys := []string{
		cache.Key(OpHistory, item.Symbol, period),
		cache.Key(OpQuote, item.Symbol),
		cache.Key(OpPrediction, item.Symbol, strconv.Itoa(days)),
		cache.Key(OpSentiment, item.Symbol, query),
	}
	for _, key := range keys {
		if err := a.cache.Delete(ctx, key); err != nil {
			a.logger.Debug("cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Stats returns application statistics
func (a *App) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"running":   a.running,
		"watchlist": len(a.watchlistItems),
		"interval":  a.interval.String(),
		"collector": a.collector.Name(),
	}
	if a.news != nil {
		stats["news"] = a.news.Name()
	}
	return stats
}
