package core

import "time"

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a fired watchlist rule.
type Alert struct {
	ID       string    `json:"id"`
	Symbol   string    `json:"symbol"`
	Rule     string    `json:"rule"`
	Severity Severity  `json:"severity"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
	Message  string    `json:"message"`
	FiredAt  time.Time `json:"fired_at"`
}
