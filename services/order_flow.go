package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/larsjuhl/kantine-kiosk/models"
	"github.com/larsjuhl/kantine-kiosk/utils"
)

// ErrSubmissionInFlight is returned when a submit arrives while another
// submission has not reached a terminal state yet.
var ErrSubmissionInFlight = errors.New("an order submission is already in flight")

// OrderFlow drives a submission from cart to settled order:
//
//	loading -> awaitingPayment -> success | error   (card)
//	loading -> success | error                      (cash)
//
// Cash and card share a single polling path; a cash order is expected to
// resolve on the first poll. loading doubles as the idle baseline between
// submissions. Neither order creation nor polling is retried automatically;
// the only recovery from error is Reset followed by a fresh Submit.
type OrderFlow struct {
	api OrderAPI

	// PollInterval is how often the payment status is queried while a
	// submission is pending.
	PollInterval time.Duration
	// PollTimeout bounds the whole polling phase. A payment terminal that
	// never answers must not keep a station polling forever; hitting the
	// bound is treated as a failed payment.
	PollTimeout time.Duration

	// onTerminal is invoked after every transition into success or error
	// for an order that was actually created.
	onTerminal func(orderID string, status models.OrderStatus)

	mu         sync.Mutex
	status     models.OrderStatus
	order      *models.Order
	inFlight   bool
	generation uint64

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewOrderFlow creates an idle flow. onTerminal may be nil.
func NewOrderFlow(api OrderAPI, onTerminal func(orderID string, status models.OrderStatus)) *OrderFlow {
	return &OrderFlow{
		api:          api,
		PollInterval: time.Second,
		PollTimeout:  5 * time.Minute,
		onTerminal:   onTerminal,
		status:       models.OrderStatusLoading,
		stopChan:     make(chan struct{}),
	}
}

// Submit creates the order and arms payment polling. Only one submission may
// be in flight; further submits are rejected with ErrSubmissionInFlight
// until a terminal state or Reset. On create failure the flow lands in the
// error state and the error is returned for the caller to surface.
//
// created, when non-nil, runs after a successful create and strictly before
// the first poll can fire, so anything it persists about the order is in
// place by the time onTerminal sees the settlement.
func (f *OrderFlow) Submit(ctx context.Context, req models.OrderRequest, created func(models.Order)) (models.Order, error) {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return models.Order{}, ErrSubmissionInFlight
	}
	f.inFlight = true
	f.status = models.OrderStatusLoading
	f.order = nil
	f.generation++
	gen := f.generation
	f.mu.Unlock()

	order, err := f.api.CreateOrder(ctx, req)
	if err != nil {
		f.mu.Lock()
		if f.generation == gen {
			f.status = models.OrderStatusError
			f.inFlight = false
		}
		f.mu.Unlock()
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}

	f.mu.Lock()
	if f.generation != gen {
		// Reset happened while the create call was in flight; the new
		// baseline wins and this order is abandoned.
		f.mu.Unlock()
		return order, nil
	}
	f.order = &order
	if !req.SkipCheckout {
		f.status = models.OrderStatusAwaitingPayment
	}
	f.mu.Unlock()

	if created != nil {
		created(order)
	}

	go f.poll(gen, order.ID, req.SkipCheckout)
	return order, nil
}

// poll queries the payment status until a terminal answer, a poll error, the
// timeout, or a Reset. A poll error is indistinguishable from a failed
// payment to the rest of the system.
func (f *OrderFlow) poll(gen uint64, orderID string, skipCheckout bool) {
	ticker := time.NewTicker(f.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(f.PollTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ticker.C:
			// The station may outlive the HTTP request that triggered the
			// submit, so polling runs on its own context; the API client's
			// own timeout bounds each call.
			status, err := f.api.PaymentStatus(context.Background(), orderID)
			if err != nil {
				utils.ErrorLogger.Printf("Payment poll for order %s failed: %v", orderID, err)
				f.finish(gen, orderID, models.OrderStatusError)
				return
			}
			switch status {
			case models.PaymentStatusSuccessful:
				f.finish(gen, orderID, models.OrderStatusSuccess)
				return
			case models.PaymentStatusFailed:
				f.finish(gen, orderID, models.OrderStatusError)
				return
			case models.PaymentStatusPending:
				if !f.markPending(gen, skipCheckout) {
					return
				}
			}
		case <-deadline.C:
			utils.ErrorLogger.Printf("Payment confirmation for order %s timed out after %v", orderID, f.PollTimeout)
			f.finish(gen, orderID, models.OrderStatusError)
			return
		case <-f.stopChan:
			return
		}
	}
}

// markPending records a pending poll answer. It reports false when the
// submission this poller belongs to has been superseded, which stops the
// poller for good. A cash order stays in loading; awaitingPayment exists
// only for the card path.
func (f *OrderFlow) markPending(gen uint64, skipCheckout bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation != gen {
		return false
	}
	if !skipCheckout {
		f.status = models.OrderStatusAwaitingPayment
	}
	return true
}

func (f *OrderFlow) finish(gen uint64, orderID string, status models.OrderStatus) {
	f.mu.Lock()
	if f.generation != gen {
		// Straggler from before a Reset; it must not transition anything.
		f.mu.Unlock()
		return
	}
	f.status = status
	f.inFlight = false
	cb := f.onTerminal
	f.mu.Unlock()

	if cb != nil {
		cb(orderID, status)
	}
}

// Status returns the current state and, when one exists, the created order.
func (f *OrderFlow) Status() (models.OrderStatus, *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order == nil {
		return f.status, nil
	}
	order := *f.order
	return f.status, &order
}

// InFlight reports whether a submission is currently blocking new submits.
func (f *OrderFlow) InFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// Reset returns the flow to the idle baseline. Bumping the generation
// guarantees any straggling poll response or in-flight create call is
// discarded instead of re-arming the machine.
func (f *OrderFlow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.status = models.OrderStatusLoading
	f.order = nil
	f.inFlight = false
}

// Stop terminates any active poller. The flow must not be reused afterwards.
func (f *OrderFlow) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopChan)
	})
}
