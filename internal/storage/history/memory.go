// internal/storage/history/memory.go
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/newthinker/insight/internal/core"
)

// MemoryStore is an in-memory alert store that keeps the newest maxSize alerts.
type MemoryStore struct {
	alerts  []core.Alert
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryStore{
		alerts:  make([]core.Alert, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds an alert to the store.
func (m *MemoryStore) Save(ctx context.Context, alert core.Alert) (core.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert.ID = uuid.NewString()
	m.alerts = append(m.alerts, alert)

	// Trim if over capacity (remove oldest)
	if len(m.alerts) > m.maxSize {
		m.alerts = m.alerts[len(m.alerts)-m.maxSize:]
	}

	return alert, nil
}

// GetByID retrieves an alert by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*core.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.alerts {
		if m.alerts[i].ID == id {
			a := m.alerts[i]
			return &a, nil
		}
	}
	return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("alert %s", id))
}

// List returns alerts matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []core.Alert{}
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if m.matches(m.alerts[i], filter) {
			result = append(result, m.alerts[i])
		}
	}

	// Apply offset and limit
	if filter.Offset >= len(result) {
		return []core.Alert{}, nil
	}
	if filter.Offset > 0 {
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching alerts.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, a := range m.alerts {
		if m.matches(a, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) matches(a core.Alert, filter ListFilter) bool {
	if filter.Symbol != "" && a.Symbol != filter.Symbol {
		return false
	}
	if filter.Rule != "" && a.Rule != filter.Rule {
		return false
	}
	if filter.Severity != "" && a.Severity != filter.Severity {
		return false
	}
	if !filter.From.IsZero() && a.FiredAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && a.FiredAt.After(filter.To) {
		return false
	}
	return true
}
