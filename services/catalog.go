package services

import (
	"context"
	"sync"
	"time"

	"github.com/larsjuhl/kantine-kiosk/models"
	"github.com/larsjuhl/kantine-kiosk/utils"
)

// Catalog is one immutable snapshot of the orderable items, with product
// windows already converted to station-local time. Readers share the slices;
// a refresh swaps in a whole new snapshot rather than editing in place.
type Catalog struct {
	Products  []models.Product `json:"products"`
	Options   []models.Option  `json:"options"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// CatalogService keeps the station's catalog snapshot fresh on a fixed
// interval. A failed refresh keeps the stale snapshot; the canteen would
// rather sell from an hour-old menu than from none.
type CatalogService struct {
	api      CatalogAPI
	location *time.Location
	Interval time.Duration

	mu       sync.RWMutex
	snapshot Catalog

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewCatalogService creates a catalog service. loc is the zone product
// windows are converted into.
func NewCatalogService(api CatalogAPI, loc *time.Location) *CatalogService {
	return &CatalogService{
		api:      api,
		location: loc,
		Interval: time.Hour,
		stopChan: make(chan struct{}),
	}
}

// Refresh fetches products and options and atomically replaces the
// snapshot. On any error the previous snapshot is left untouched.
func (cs *CatalogService) Refresh(ctx context.Context) error {
	products, err := cs.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	options, err := cs.api.ListOptions(ctx)
	if err != nil {
		return err
	}

	for i := range products {
		products[i].OrderWindow = models.ConvertWindowFromUTC(products[i].OrderWindow, cs.location)
		if !products[i].OrderWindow.From.Valid() || !products[i].OrderWindow.To.Valid() {
			utils.ErrorLogger.Printf("Product %s has an out-of-range order window, it will never be available", products[i].ID)
		}
	}

	cs.mu.Lock()
	cs.snapshot = Catalog{
		Products:  products,
		Options:   options,
		FetchedAt: time.Now(),
	}
	cs.mu.Unlock()
	return nil
}

// Snapshot returns the current catalog. The returned slices must be treated
// as read-only.
func (cs *CatalogService) Snapshot() Catalog {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.snapshot
}

// Start begins periodic refreshing until Stop is called. Refresh failures
// are logged and the stale snapshot stays in use until the next cycle.
func (cs *CatalogService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(cs.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := cs.Refresh(ctx); err != nil {
					utils.ErrorLogger.Printf("Catalog refresh failed, keeping stale snapshot: %v", err)
				}
			case <-cs.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts periodic refreshing.
func (cs *CatalogService) Stop() {
	cs.stopOnce.Do(func() {
		close(cs.stopChan)
	})
}
