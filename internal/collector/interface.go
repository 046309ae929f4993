package collector

import (
	"context"

	"github.com/newthinker/insight/internal/core"
)

// Periods accepted by FetchHistory.
var Periods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// ValidPeriod reports whether period is one of Periods.
func ValidPeriod(period string) bool {
	for _, p := range Periods {
		if p == period {
			return true
		}
	}
	return false
}

// Collector fetches market data for a symbol.
//
// Failures are classified with core.ErrInvalidSymbol, core.ErrNetwork,
// core.ErrRateLimited or core.ErrNoData so callers can tell them apart.
type Collector interface {
	// Metadata
	Name() string
	SupportedMarkets() []core.Market

	// Data fetching
	FetchQuote(ctx context.Context, symbol string) (*core.Quote, error)
	FetchHistory(ctx context.Context, symbol, period string) (core.Series, error)
}
