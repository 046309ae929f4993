package notifier

import (
	"context"

	"github.com/newthinker/insight/internal/core"
)

// Notifier defines the interface for alert notification
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send sends a single alert notification
	Send(ctx context.Context, alert core.Alert) error

	// SendBatch sends alerts fired in the same refresh as one message
	SendBatch(ctx context.Context, alerts []core.Alert) error
}
