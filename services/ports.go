package services

import (
	"context"

	"github.com/larsjuhl/kantine-kiosk/models"
)

// The backend collaborators a station depends on, kept as narrow interfaces
// so the engine can be driven by fakes in tests. *canteen.Client satisfies
// all of them.

// CatalogAPI lists the orderable items.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListOptions(ctx context.Context) ([]models.Option, error)
}

// OrderAPI creates orders and reports their payment status.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (models.Order, error)
	PaymentStatus(ctx context.Context, orderID string) (models.PaymentStatus, error)
}

// KioskAPI exposes the terminal's identity and the activities it may serve.
type KioskAPI interface {
	CurrentKiosk(ctx context.Context) (models.Kiosk, error)
	ListActivities(ctx context.Context) ([]models.Activity, error)
}

// ExistsFunc checks that the bound context (activity or room) still exists.
// A nil return means it does; any error means it does not, regardless of
// cause.
type ExistsFunc func(ctx context.Context, id string) error
