package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/collector"
	"github.com/newthinker/insight/internal/core"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// validSymbol matches symbols like AAPL, RELIANCE.NS, M&M.NS, 0700.HK, ^NSEI, BRK-B
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9&=-]{1,15}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("symbol cannot be empty"))
	}
	if len(symbol) > 20 {
		return core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("symbol too long: %s", symbol))
	}
	if !validSymbol.MatchString(symbol) {
		return core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("invalid symbol format: %s", symbol))
	}
	return nil
}

// Config holds Yahoo collector settings
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Yahoo implements the Yahoo Finance chart API collector
type Yahoo struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// New creates a new Yahoo collector
func New(cfg Config) *Yahoo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; insight/1.0)"
	}
	return &Yahoo{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketIN, core.MarketUS, core.MarketHK, core.MarketEU, core.MarketCNA}
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchQuote fetches the latest quote
func (y *Yahoo) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	r, err := y.chart(ctx, symbol, url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil {
		return nil, err
	}

	meta := r.Meta
	if meta.RegularMarketPrice == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no current price for %s", symbol))
	}

	prev := meta.ChartPreviousClose
	if meta.PreviousClose > 0 {
		prev = meta.PreviousClose
	}
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	return &core.Quote{
		Symbol:        symbol,
		Name:          name,
		Market:        y.detectMarket(symbol),
		Currency:      meta.Currency,
		Price:         meta.RegularMarketPrice,
		PreviousClose: prev,
		DayHigh:       meta.RegularMarketDayHigh,
		DayLow:        meta.RegularMarketDayLow,
		YearHigh:      meta.FiftyTwoWeekHigh,
		YearLow:       meta.FiftyTwoWeekLow,
		Volume:        meta.RegularMarketVolume,
		Time:          time.Unix(meta.RegularMarketTime, 0).UTC(),
		Source:        y.Name(),
	}, nil
}

// FetchHistory fetches daily OHLCV bars covering period
func (y *Yahoo) FetchHistory(ctx context.Context, symbol, period string) (core.Series, error) {
	if !collector.ValidPeriod(period) {
		return nil, fmt.Errorf("invalid period %q", period)
	}

	r, err := y.chart(ctx, symbol, url.Values{"interval": {"1d"}, "range": {period}})
	if err != nil {
		return nil, err
	}
	if len(r.Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for %s", symbol))
	}

	quotes := r.Indicators.Quote[0]
	data := make(core.Series, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(quotes.Close) || quotes.Close[i] == nil {
			continue // Skip missing data
		}
		bar := core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Open:     valueAt(quotes.Open, i, *quotes.Close[i]),
			High:     valueAt(quotes.High, i, *quotes.Close[i]),
			Low:      valueAt(quotes.Low, i, *quotes.Close[i]),
			Close:    *quotes.Close[i],
			Time:     time.Unix(ts, 0).UTC(),
		}
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			bar.Volume = *quotes.Volume[i]
		}

		// Yahoo repeats the live bar at the end of a range; keep the latest
		if n := len(data); n > 0 && !bar.Time.After(data[n-1].Time) {
			data[n-1] = bar
			continue
		}
		data = append(data, bar)
	}

	if len(data) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for %s", symbol))
	}
	return data, nil
}

// valueAt returns values[i], or fallback (the bar's close) when Yahoo left
// the field out, so a partial bar never reads as a zero price.
func valueAt(values []*float64, i int, fallback float64) float64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return fallback
}

// chart performs a chart API request and classifies failures
func (y *Yahoo) chart(ctx context.Context, symbol string, params url.Values) (*chartResult, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s?%s", y.baseURL, url.PathEscape(y.toYahooSymbol(symbol)), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", y.userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.WrapError(core.ErrRateLimited, fmt.Errorf("yahoo returned 429 for %s", symbol))
	case resp.StatusCode >= 500:
		return nil, core.WrapError(core.ErrNetwork, fmt.Errorf("yahoo returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("yahoo returned %d for %s", resp.StatusCode, symbol))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrInvalidSymbol,
			fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}

	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}

	return &result.Chart.Result[0], nil
}

func (y *Yahoo) detectMarket(symbol string) core.Market {
	switch {
	case strings.HasSuffix(symbol, ".NS"), strings.HasSuffix(symbol, ".BO"),
		strings.HasPrefix(symbol, "^NSE"), strings.HasPrefix(symbol, "^BSE"):
		return core.MarketIN
	case strings.HasSuffix(symbol, ".HK"):
		return core.MarketHK
	case strings.HasSuffix(symbol, ".SH"), strings.HasSuffix(symbol, ".SZ"):
		return core.MarketCNA
	case strings.HasSuffix(symbol, ".L"), strings.HasSuffix(symbol, ".DE"), strings.HasSuffix(symbol, ".PA"):
		return core.MarketEU
	}
	return core.MarketUS
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol               string  `json:"symbol"`
	Currency             string  `json:"currency"`
	LongName             string  `json:"longName"`
	ShortName            string  `json:"shortName"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  int64   `json:"regularMarketVolume"`
	RegularMarketTime    int64   `json:"regularMarketTime"`
	ChartPreviousClose   float64 `json:"chartPreviousClose"`
	PreviousClose        float64 `json:"previousClose"`
	FiftyTwoWeekHigh     float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      float64 `json:"fiftyTwoWeekLow"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
