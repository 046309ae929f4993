package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/insight/internal/core"
)

// Registry holds the configured notifiers and fans alerts out to them.
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

func NewRegistry() *Registry {
	return &Registry{notifiers: make(map[string]Notifier)}
}

// Register adds n under n.Name(). Names must be unique.
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := n.Name()
	if _, dup := r.notifiers[name]; dup {
		return fmt.Errorf("notifier %q already registered", name)
	}
	r.notifiers[name] = n
	return nil
}

func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notifiers[name]
	if !ok {
		return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("notifier %q", name))
	}
	return n, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notifiers)
}

// NotifyAll sends alert through every notifier and returns the failures
// keyed by notifier name.
func (r *Registry) NotifyAll(ctx context.Context, alert core.Alert) map[string]error {
	return r.fanOut(func(n Notifier) error { return n.Send(ctx, alert) })
}

// NotifyAllBatch sends alerts as one message per notifier. An empty batch
// sends nothing.
func (r *Registry) NotifyAllBatch(ctx context.Context, alerts []core.Alert) map[string]error {
	if len(alerts) == 0 {
		return map[string]error{}
	}
	return r.fanOut(func(n Notifier) error { return n.SendBatch(ctx, alerts) })
}

// fanOut calls send on every notifier concurrently so one slow channel does
// not hold up the others.
func (r *Registry) fanOut(send func(Notifier) error) map[string]error {
	r.mu.RLock()
	targets := make(map[string]Notifier, len(r.notifiers))
	for name, n := range r.notifiers {
		targets[name] = n
	}
	r.mu.RUnlock()

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs = make(map[string]error)
	)
	for name, n := range targets {
		wg.Add(1)
		go func(name string, n Notifier) {
			defer wg.Done()
			if err := send(n); err != nil {
				mu.Lock()
				errs[name] = err
				mu.Unlock()
			}
		}(name, n)
	}
	wg.Wait()
	return errs
}
