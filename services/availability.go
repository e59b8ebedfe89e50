package services

import (
	"sync"
	"time"
)

// AvailabilityMonitor recomputes which products are currently inside their
// order window. The evaluation itself is pure; the monitor just re-runs it
// on a short cadence so displayed availability stays fresh without
// per-second churn.
type AvailabilityMonitor struct {
	catalog  *CatalogService
	Interval time.Duration

	// now is swappable for tests.
	now func() time.Time

	mu        sync.RWMutex
	available map[string]bool

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewAvailabilityMonitor creates a monitor over the given catalog.
func NewAvailabilityMonitor(catalog *CatalogService) *AvailabilityMonitor {
	return &AvailabilityMonitor{
		catalog:   catalog,
		Interval:  10 * time.Second,
		now:       time.Now,
		available: map[string]bool{},
		stopChan:  make(chan struct{}),
	}
}

// Recompute re-evaluates every product's order window against the clock.
func (am *AvailabilityMonitor) Recompute() {
	snapshot := am.catalog.Snapshot()
	now := am.now()

	available := make(map[string]bool, len(snapshot.Products))
	for _, p := range snapshot.Products {
		available[p.ID] = p.OrderWindow.Contains(now)
	}

	am.mu.Lock()
	am.available = available
	am.mu.Unlock()
}

// Availability returns a copy of the product-id to availability map.
func (am *AvailabilityMonitor) Availability() map[string]bool {
	am.mu.RLock()
	defer am.mu.RUnlock()

	out := make(map[string]bool, len(am.available))
	for id, ok := range am.available {
		out[id] = ok
	}
	return out
}

// Start recomputes immediately and then on every interval until Stop.
func (am *AvailabilityMonitor) Start() {
	am.Recompute()
	go func() {
		ticker := time.NewTicker(am.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				am.Recompute()
			case <-am.stopChan:
				return
			}
		}
	}()
}

// Stop halts the monitor.
func (am *AvailabilityMonitor) Stop() {
	am.stopOnce.Do(func() {
		close(am.stopChan)
	})
}
