package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/insight/internal/collector"
	"github.com/newthinker/insight/internal/core"
)

func TestYahoo_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Yahoo)(nil)
}

func TestYahoo_Name(t *testing.T) {
	y := New(Config{})
	if y.Name() != "yahoo" {
		t.Errorf("expected 'yahoo', got '%s'", y.Name())
	}
}

func TestYahoo_SupportedMarkets(t *testing.T) {
	markets := New(Config{}).SupportedMarkets()

	if len(markets) == 0 || markets[0] != core.MarketIN {
		t.Errorf("expected IN first, got %v", markets)
	}
}

func TestYahoo_ToYahooSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"RELIANCE.NS", "RELIANCE.NS"},
		{"600519.SH", "600519.SS"}, // Shanghai -> SS for Yahoo
		{"^NSEI", "^NSEI"},
	}

	y := New(Config{})
	for _, tc := range tests {
		got := y.toYahooSymbol(tc.input)
		if got != tc.expected {
			t.Errorf("toYahooSymbol(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestYahoo_DetectMarket(t *testing.T) {
	tests := []struct {
		symbol   string
		expected core.Market
	}{
		{"AAPL", core.MarketUS},
		{"RELIANCE.NS", core.MarketIN},
		{"500325.BO", core.MarketIN},
		{"^NSEI", core.MarketIN},
		{"^BSESN", core.MarketIN},
		{"0700.HK", core.MarketHK},
		{"600519.SH", core.MarketCNA},
		{"VOD.L", core.MarketEU},
	}

	y := New(Config{})
	for _, tc := range tests {
		got := y.detectMarket(tc.symbol)
		if got != tc.expected {
			t.Errorf("detectMarket(%s) = %s, want %s", tc.symbol, got, tc.expected)
		}
	}
}

func TestValidateSymbol(t *testing.T) {
	valid := []string{"AAPL", "RELIANCE.NS", "M&M.NS", "^NSEI", "BRK-B", "0700.HK"}
	for _, s := range valid {
		if err := validateSymbol(s); err != nil {
			t.Errorf("validateSymbol(%q) = %v", s, err)
		}
	}

	invalid := []string{"", "../etc", "A B", "TOO.LONGSUFFIX", "^^X"}
	for _, s := range invalid {
		if err := validateSymbol(s); !errors.Is(err, core.ErrInvalidSymbol) {
			t.Errorf("validateSymbol(%q) should be ErrInvalidSymbol, got %v", s, err)
		}
	}
}

const historyJSON = `{"chart":{"result":[{
  "meta":{"symbol":"TCS.NS","currency":"INR","regularMarketPrice":3900.5},
  "timestamp":[1718000000,1718086400,1718172800,1718259200],
  "indicators":{"quote":[{
    "open":[3800,3850,null,3890],
    "high":[3850,3900,null,3920],
    "low":[3790,3840,null,3880],
    "close":[3840,3880,null,3900.5],
    "volume":[1000,2000,null,null]
  }]}
}],"error":null}}`

func newTestYahoo(t *testing.T, status int, body string, check func(*http.Request)) *Yahoo {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL})
}

func TestYahoo_FetchHistory(t *testing.T) {
	y := newTestYahoo(t, http.StatusOK, historyJSON, func(r *http.Request) {
		if r.URL.Path != "/TCS.NS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("range") != "1y" || r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
	})

	series, err := y.FetchHistory(context.Background(), "TCS.NS", "1y")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}

	// null close skipped
	if len(series) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(series))
	}
	if err := core.ValidateSeries(series); err != nil {
		t.Errorf("series should be valid: %v", err)
	}
	if series[0].Close != 3840 || series[0].Volume != 1000 {
		t.Errorf("unexpected first bar %+v", series[0])
	}
	if series[1].Close != 3880 {
		t.Errorf("unexpected second bar %+v", series[1])
	}
	if series[2].Close != 3900.5 || series[2].Volume != 0 {
		t.Errorf("unexpected last bar %+v", series[2])
	}
	if !series[0].Time.Equal(time.Unix(1718000000, 0)) {
		t.Errorf("unexpected time %v", series[0].Time)
	}
}

func TestYahoo_FetchHistoryCollapsesRepeatedBar(t *testing.T) {
	body := `{"chart":{"result":[{"meta":{},
	  "timestamp":[1718000000,1718086400,1718086400],
	  "indicators":{"quote":[{"open":[1,2,2],"high":[1,2,3],"low":[1,2,2],"close":[1,2,2.5],"volume":[1,2,3]}]}}]}}`
	y := newTestYahoo(t, http.StatusOK, body, nil)

	series, err := y.FetchHistory(context.Background(), "AAPL", "5d")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(series) != 2 || series[1].Close != 2.5 || series[1].Volume != 3 {
		t.Errorf("expected last bar to win, got %+v", series)
	}
}

func TestYahoo_FetchHistoryFillsPartialBar(t *testing.T) {
	body := `{"chart":{"result":[{"meta":{},
	  "timestamp":[1718000000,1718086400],
	  "indicators":{"quote":[{"open":[10,null],"high":[12,null],"low":[9],"close":[11,11.5],"volume":[5,null]}]}}]}}`
	y := newTestYahoo(t, http.StatusOK, body, nil)

	series, err := y.FetchHistory(context.Background(), "TCS.NS", "5d")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(series))
	}
	last := series[1]
	if last.Open != 11.5 || last.High != 11.5 || last.Low != 11.5 {
		t.Errorf("missing fields should take the close, got %+v", last)
	}
	if series[0].Open != 10 || series[0].High != 12 || series[0].Low != 9 {
		t.Errorf("complete bar changed: %+v", series[0])
	}
}

func TestYahoo_FetchQuote(t *testing.T) {
	body := `{"chart":{"result":[{"meta":{
	  "symbol":"RELIANCE.NS","currency":"INR","longName":"Reliance Industries Limited",
	  "regularMarketPrice":2950,"regularMarketDayHigh":2975,"regularMarketDayLow":2930,
	  "regularMarketVolume":5400000,"regularMarketTime":1718180000,
	  "chartPreviousClose":2900,"fiftyTwoWeekHigh":3217.9,"fiftyTwoWeekLow":2220.3},
	  "timestamp":[],"indicators":{"quote":[{}]}}]}}`
	y := newTestYahoo(t, http.StatusOK, body, func(r *http.Request) {
		if r.URL.Query().Get("range") != "5d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
	})

	q, err := y.FetchQuote(context.Background(), "RELIANCE.NS")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if q.Name != "Reliance Industries Limited" || q.Currency != "INR" || q.Market != core.MarketIN {
		t.Errorf("unexpected metadata %+v", q)
	}
	if q.Price != 2950 || q.PreviousClose != 2900 || q.DayHigh != 2975 || q.DayLow != 2930 {
		t.Errorf("unexpected prices %+v", q)
	}
	if q.YearHigh != 3217.9 || q.Volume != 5400000 || q.Source != "yahoo" {
		t.Errorf("unexpected quote %+v", q)
	}
	if !q.IsValid() {
		t.Error("quote should be valid")
	}
}

func TestYahoo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, "Too Many Requests", core.ErrRateLimited},
		{"not found", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, core.ErrInvalidSymbol},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"delisted"}}}`, core.ErrInvalidSymbol},
		{"server error", http.StatusServiceUnavailable, "", core.ErrNetwork},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, core.ErrNoData},
		{"no bars", http.StatusOK, `{"chart":{"result":[{"meta":{},"timestamp":[],"indicators":{"quote":[{}]}}]}}`, core.ErrNoData},
		{"garbage", http.StatusOK, "<html>", core.ErrCollectorFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := newTestYahoo(t, tt.status, tt.body, nil)
			_, err := y.FetchHistory(context.Background(), "XYZ.NS", "1y")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestYahoo_NetworkError(t *testing.T) {
	y := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := y.FetchQuote(context.Background(), "TCS.NS")
	if !errors.Is(err, core.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestYahoo_InvalidInput(t *testing.T) {
	y := New(Config{BaseURL: "http://127.0.0.1:1"})

	if _, err := y.FetchHistory(context.Background(), "TCS.NS", "7y"); err == nil {
		t.Error("expected error for invalid period")
	}
	if _, err := y.FetchQuote(context.Background(), "bad symbol"); !errors.Is(err, core.ErrInvalidSymbol) {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}
}
