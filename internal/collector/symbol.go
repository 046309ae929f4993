package collector

import "strings"

// aliases maps common Indian company and index names to Yahoo symbols.
var aliases = map[string]string{
	"reliance":           "RELIANCE.NS",
	"tcs":                "TCS.NS",
	"infosys":            "INFY.NS",
	"hdfc bank":          "HDFCBANK.NS",
	"hdfcbank":           "HDFCBANK.NS",
	"icici bank":         "ICICIBANK.NS",
	"icicibank":          "ICICIBANK.NS",
	"wipro":              "WIPRO.NS",
	"bharti airtel":      "BHARTIARTL.NS",
	"airtel":             "BHARTIARTL.NS",
	"itc":                "ITC.NS",
	"sbi":                "SBIN.NS",
	"state bank":         "SBIN.NS",
	"axis bank":          "AXISBANK.NS",
	"axisbank":           "AXISBANK.NS",
	"maruti":             "MARUTI.NS",
	"asian paints":       "ASIANPAINT.NS",
	"asianpaint":         "ASIANPAINT.NS",
	"bajaj finance":      "BAJFINANCE.NS",
	"bajfinance":         "BAJFINANCE.NS",
	"hul":                "HINDUNILVR.NS",
	"hindustan unilever": "HINDUNILVR.NS",
	"nifty 50":           "^NSEI",
	"nifty":              "^NSEI",
	"nifty50":            "^NSEI",
	"bank nifty":         "^NSEBANK",
	"banknifty":          "^NSEBANK",
	"sensex":             "^BSESN",
}

// FormatSymbol turns a company name or bare ticker into an exchange symbol.
// Known names resolve through the alias table; symbols that already carry an
// exchange suffix (".NS", ".BO", or any other dotted suffix) and index
// symbols ("^...") pass through upper-cased; anything else gets defaultSuffix
// appended. An empty defaultSuffix leaves bare tickers alone.
func FormatSymbol(name, defaultSuffix string) string {
	trimmed := strings.TrimSpace(name)
	if s, ok := aliases[strings.ToLower(trimmed)]; ok {
		return s
	}

	upper := strings.ToUpper(trimmed)
	if upper == "" || strings.HasPrefix(upper, "^") || strings.Contains(upper, ".") {
		return upper
	}
	if defaultSuffix == "" {
		return upper
	}
	return upper + "." + strings.ToUpper(strings.TrimPrefix(defaultSuffix, "."))
}

// DisplayName returns a search-friendly name for a symbol, used to query
// news when the caller gives none: "RELIANCE.NS" becomes "RELIANCE".
func DisplayName(symbol string) string {
	s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(symbol)), "^")
	if i := strings.Index(s, "."); i > 0 {
		s = s[:i]
	}
	return s
}
