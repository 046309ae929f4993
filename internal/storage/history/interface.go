// internal/storage/history/interface.go
package history

import (
	"context"
	"time"

	"github.com/newthinker/insight/internal/core"
)

// Store defines the interface for fired alert persistence.
type Store interface {
	// Save persists an alert and returns it with its assigned ID.
	Save(ctx context.Context, alert core.Alert) (core.Alert, error)

	// GetByID retrieves an alert by its ID.
	GetByID(ctx context.Context, id string) (*core.Alert, error)

	// List retrieves alerts matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]core.Alert, error)

	// Count returns the number of alerts matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing alerts.
type ListFilter struct {
	Symbol   string
	Rule     string
	Severity core.Severity
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
