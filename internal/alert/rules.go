package alert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/core"
)

// Metric names a rule expression may reference. Each is produced by the
// watchlist refresh for one symbol.
const (
	MetricPrice               = "price"
	MetricChangePct           = "change_pct"
	MetricRSI                 = "rsi"
	MetricMACDHistogram       = "macd_histogram"
	MetricForecastChangePct   = "forecast_change_pct"
	MetricSentimentScore      = "sentiment_score"
	MetricSentimentConfidence = "sentiment_confidence"
)

var knownMetrics = map[string]bool{
	MetricPrice:               true,
	MetricChangePct:           true,
	MetricRSI:                 true,
	MetricMACDHistogram:       true,
	MetricForecastChangePct:   true,
	MetricSentimentScore:      true,
	MetricSentimentConfidence: true,
}

var exprPattern = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*(-?\d+(?:\.\d+)?)$`)

// Rule defines an alert rule.
type Rule struct {
	Name     string        `mapstructure:"name"`
	Expr     string        `mapstructure:"expr"` // "metric op value", e.g. "rsi > 70"
	For      time.Duration `mapstructure:"for"`
	Severity core.Severity `mapstructure:"severity"`
	Message  string        `mapstructure:"message"`
}

// condition is a parsed rule expression.
type condition struct {
	metric    string
	op        string
	threshold float64
}

func (r *Rule) parse() (condition, error) {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(r.Expr))
	if len(matches) != 4 {
		return condition{}, fmt.Errorf("rule %q: expression %q is not \"metric op value\"", r.Name, r.Expr)
	}
	threshold, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return condition{}, fmt.Errorf("rule %q: %w", r.Name, err)
	}
	return condition{metric: matches[1], op: matches[2], threshold: threshold}, nil
}

// Validate checks the rule name, expression, metric and severity.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("alert rule name is required"))
	}
	c, err := r.parse()
	if err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}
	if !knownMetrics[c.metric] {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("rule %q: unknown metric %q", r.Name, c.metric))
	}
	switch r.Severity {
	case "", core.SeverityInfo, core.SeverityWarning, core.SeverityCritical:
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("rule %q: unknown severity %q", r.Name, r.Severity))
	}
	if r.For < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("rule %q: for must not be negative", r.Name))
	}
	return nil
}

// Metric returns the metric the rule watches, or "" if the expression is malformed.
func (r *Rule) Metric() string {
	c, err := r.parse()
	if err != nil {
		return ""
	}
	return c.metric
}

// Evaluate evaluates the rule expression against metrics. A metric missing
// from the map never triggers.
func (r *Rule) Evaluate(metrics map[string]float64) bool {
	c, err := r.parse()
	if err != nil {
		return false
	}

	value, exists := metrics[c.metric]
	if !exists {
		return false
	}

	switch c.op {
	case ">":
		return value > c.threshold
	case "<":
		return value < c.threshold
	case ">=":
		return value >= c.threshold
	case "<=":
		return value <= c.threshold
	case "==":
		return value == c.threshold
	case "!=":
		return value != c.threshold
	default:
		return false
	}
}

// FormatMessage formats the alert message for symbol with the metric value.
func (r *Rule) FormatMessage(symbol string, metrics map[string]float64) string {
	severity := r.Severity
	if severity == "" {
		severity = core.SeverityInfo
	}
	msg := fmt.Sprintf("[%s] %s %s", strings.ToUpper(string(severity)), symbol, r.Name)
	if r.Message != "" {
		msg += ": " + r.Message
	}
	if metric := r.Metric(); metric != "" {
		if v, ok := metrics[metric]; ok {
			msg += fmt.Sprintf(" (%s=%.2f)", metric, v)
		}
	}
	return msg
}
