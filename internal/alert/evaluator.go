package alert

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/insight/internal/core"
	"go.uber.org/zap"
)

// Sender delivers fired alerts. notifier.Registry implements it.
type Sender interface {
	NotifyAllBatch(ctx context.Context, alerts []core.Alert) map[string]error
}

// Recorder keeps fired alerts. history.Store implements it.
type Recorder interface {
	Save(ctx context.Context, alert core.Alert) (core.Alert, error)
}

// Evaluator evaluates alert rules per symbol and sends notifications.
type Evaluator struct {
	rules    []Rule
	sender   Sender
	recorder Recorder
	logger   *zap.Logger
	cooldown time.Duration

	// Track pending alerts (waiting for "for" duration), keyed by symbol and rule
	pending map[string]time.Time
	// Track last fired time for cooldown
	lastFired map[string]time.Time

	// For testing: allow time advancement
	now func() time.Time

	mu sync.Mutex
}

// NewEvaluator creates a new alert evaluator. sender and recorder may be nil.
func NewEvaluator(rules []Rule, sender Sender, recorder Recorder, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		rules:     rules,
		sender:    sender,
		recorder:  recorder,
		logger:    logger,
		cooldown:  time.Hour,
		pending:   make(map[string]time.Time),
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetCooldown sets the minimum time between two firings of a rule for the
// same symbol.
func (e *Evaluator) SetCooldown(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldown = d
}

// Rules returns the configured rules.
func (e *Evaluator) Rules() []Rule {
	return e.rules
}

// Evaluate checks every rule against the metrics of one symbol. Fired alerts
// are recorded, sent and returned.
func (e *Evaluator) Evaluate(ctx context.Context, symbol string, metrics map[string]float64) []core.Alert {
	fired := e.due(symbol, metrics)
	if len(fired) == 0 {
		return nil
	}

	if e.recorder != nil {
		for i := range fired {
			saved, err := e.recorder.Save(ctx, fired[i])
			if err != nil {
				e.logger.Warn("failed to record alert", zap.String("rule", fired[i].Rule), zap.Error(err))
				continue
			}
			fired[i] = saved
		}
	}

	for _, a := range fired {
		e.logger.Info("alert fired",
			zap.String("symbol", a.Symbol),
			zap.String("rule", a.Rule),
			zap.String("severity", string(a.Severity)),
			zap.Float64("value", a.Value),
		)
	}

	if e.sender != nil {
		for name, err := range e.sender.NotifyAllBatch(ctx, fired) {
			e.logger.Warn("notifier failed", zap.String("notifier", name), zap.Error(err))
		}
	}
	return fired
}

// due applies the for-duration and cooldown bookkeeping and returns the
// alerts that fire now.
func (e *Evaluator) due(symbol string, metrics map[string]float64) []core.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var fired []core.Alert

	for _, rule := range e.rules {
		key := symbol + "|" + rule.Name

		// Check if rule condition is met
		if !rule.Evaluate(metrics) {
			// Rule not triggered, clear pending state
			delete(e.pending, key)
			continue
		}

		if rule.For > 0 {
			pendingSince, isPending := e.pending[key]
			if !isPending {
				e.pending[key] = now
				continue
			}
			if now.Sub(pendingSince) < rule.For {
				continue // Still waiting
			}
		}

		// Check cooldown
		if last, ok := e.lastFired[key]; ok && now.Sub(last) < e.cooldown {
			continue
		}

		severity := rule.Severity
		if severity == "" {
			severity = core.SeverityInfo
		}
		metric := rule.Metric()
		fired = append(fired, core.Alert{
			Symbol:   symbol,
			Rule:     rule.Name,
			Severity: severity,
			Metric:   metric,
			Value:    metrics[metric],
			Message:  rule.FormatMessage(symbol, metrics),
			FiredAt:  now,
		})

		e.lastFired[key] = now
		delete(e.pending, key)
	}
	return fired
}

// advanceTime is for testing - advances the internal clock.
func (e *Evaluator) advanceTime(d time.Duration) {
	oldNow := e.now
	e.now = func() time.Time {
		return oldNow().Add(d)
	}
}
