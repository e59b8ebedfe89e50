package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsjuhl/kantine-kiosk/models"
)

type pollResult struct {
	status models.PaymentStatus
	err    error
}

// fakeOrderAPI scripts the backend's answers. When the poll script runs out
// the last result repeats, so "pending forever" is a one-element script.
type fakeOrderAPI struct {
	mu          sync.Mutex
	createErr   error
	pollScript  []pollResult
	createCalls int
	pollCalls   int
}

func (f *fakeOrderAPI) CreateOrder(ctx context.Context, req models.OrderRequest) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return models.Order{}, f.createErr
	}
	return models.Order{
		ID:           "ord-1",
		ActivityID:   req.ActivityID,
		RoomID:       req.RoomID,
		Products:     req.Products,
		Options:      req.Options,
		SkipCheckout: req.SkipCheckout,
	}, nil
}

func (f *fakeOrderAPI) PaymentStatus(ctx context.Context, orderID string) (models.PaymentStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCalls++
	idx := f.pollCalls - 1
	if idx >= len(f.pollScript) {
		idx = len(f.pollScript) - 1
	}
	r := f.pollScript[idx]
	return r.status, r.err
}

func (f *fakeOrderAPI) calls() (create, poll int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls, f.pollCalls
}

func newTestFlow(api OrderAPI, onTerminal func(string, models.OrderStatus)) *OrderFlow {
	flow := NewOrderFlow(api, onTerminal)
	flow.PollInterval = 5 * time.Millisecond
	flow.PollTimeout = time.Second
	return flow
}

func cartRequest(skipCheckout bool) models.OrderRequest {
	return models.OrderRequest{
		KioskID:      "kiosk-1",
		ActivityID:   "act-1",
		Products:     []models.OrderLine{{ID: "P1", Quantity: 2}},
		Options:      []models.OrderLine{{ID: "O1", Quantity: 1}},
		SkipCheckout: skipCheckout,
	}
}

func waitForTerminal(t *testing.T, flow *OrderFlow) models.OrderStatus {
	t.Helper()
	var status models.OrderStatus
	require.Eventually(t, func() bool {
		status, _ = flow.Status()
		return status.Terminal()
	}, time.Second, time.Millisecond)
	return status
}

func TestOrderFlow_CashResolvesOnFirstPoll(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{{status: models.PaymentStatusSuccessful}}}
	flow := newTestFlow(api, nil)
	defer flow.Stop()

	order, err := flow.Submit(context.Background(), cartRequest(true), nil)
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)

	// Cash never enters awaitingPayment; it stays loading until settled.
	status, _ := flow.Status()
	assert.Equal(t, models.OrderStatusLoading, status)

	assert.Equal(t, models.OrderStatusSuccess, waitForTerminal(t, flow))
	create, poll := api.calls()
	assert.Equal(t, 1, create)
	assert.Equal(t, 1, poll)
	assert.False(t, flow.InFlight())
}

func TestOrderFlow_CardPollsUntilSuccessful(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{
		{status: models.PaymentStatusPending},
		{status: models.PaymentStatusPending},
		{status: models.PaymentStatusSuccessful},
	}}
	flow := newTestFlow(api, nil)
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(false), nil)
	require.NoError(t, err)

	status, order := flow.Status()
	assert.Equal(t, models.OrderStatusAwaitingPayment, status)
	require.NotNil(t, order)
	assert.Equal(t, "ord-1", order.ID)

	assert.Equal(t, models.OrderStatusSuccess, waitForTerminal(t, flow))

	// Polling must stop the instant a terminal status arrives: exactly one
	// create and exactly three polls, with no stragglers afterwards.
	create, poll := api.calls()
	assert.Equal(t, 1, create)
	assert.Equal(t, 3, poll)

	time.Sleep(10 * flow.PollInterval)
	_, pollAfter := api.calls()
	assert.Equal(t, 3, pollAfter)
}

func TestOrderFlow_FailedPaymentIsTerminalError(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{
		{status: models.PaymentStatusPending},
		{status: models.PaymentStatusFailed},
	}}
	flow := newTestFlow(api, nil)
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(false), nil)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusError, waitForTerminal(t, flow))
	_, poll := api.calls()
	assert.Equal(t, 2, poll)
}

func TestOrderFlow_PollErrorTreatedAsFailedPayment(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{
		{err: errors.New("backend unreachable")},
	}}
	flow := newTestFlow(api, nil)
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(false), nil)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusError, waitForTerminal(t, flow))

	time.Sleep(10 * flow.PollInterval)
	_, poll := api.calls()
	assert.Equal(t, 1, poll)
}

func TestOrderFlow_CreateFailureIsTerminal(t *testing.T) {
	api := &fakeOrderAPI{createErr: errors.New("boom")}
	flow := newTestFlow(api, nil)
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(true), nil)
	require.Error(t, err)

	status, order := flow.Status()
	assert.Equal(t, models.OrderStatusError, status)
	assert.Nil(t, order)

	// No polling may ever start for an order that was never created.
	time.Sleep(10 * flow.PollInterval)
	_, poll := api.calls()
	assert.Equal(t, 0, poll)
}

func TestOrderFlow_SecondSubmitRejectedWhileInFlight(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{{status: models.PaymentStatusPending}}}
	flow := newTestFlow(api, nil)
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(false), nil)
	require.NoError(t, err)

	_, err = flow.Submit(context.Background(), cartRequest(false), nil)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
}

func TestOrderFlow_ResetDisarmsStragglingPoller(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{{status: models.PaymentStatusPending}}}
	flow := newTestFlow(api, nil)
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(false), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, poll := api.calls()
		return poll >= 1
	}, time.Second, time.Millisecond)

	flow.Reset()

	status, order := flow.Status()
	assert.Equal(t, models.OrderStatusLoading, status)
	assert.Nil(t, order)
	assert.False(t, flow.InFlight())

	// Any response still in flight belongs to a dead generation and must
	// not re-arm the machine or flip the status.
	time.Sleep(10 * flow.PollInterval)
	status, _ = flow.Status()
	assert.Equal(t, models.OrderStatusLoading, status)

	// A fresh submit works immediately after reset.
	_, err = flow.Submit(context.Background(), cartRequest(true), nil)
	assert.NoError(t, err)
}

func TestOrderFlow_PollTimeoutEndsInError(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{{status: models.PaymentStatusPending}}}
	flow := newTestFlow(api, nil)
	flow.PollTimeout = 30 * time.Millisecond
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(false), nil)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusError, waitForTerminal(t, flow))
}

func TestOrderFlow_CashPendingStaysLoading(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{
		{status: models.PaymentStatusPending},
		{status: models.PaymentStatusPending},
		{status: models.PaymentStatusSuccessful},
	}}
	flow := newTestFlow(api, nil)
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(true), nil)
	require.NoError(t, err)

	// A slow cash settlement keeps the flow in loading; awaitingPayment is
	// reserved for the card path.
	require.Eventually(t, func() bool {
		_, poll := api.calls()
		return poll >= 1
	}, time.Second, time.Millisecond)
	status, _ := flow.Status()
	assert.Equal(t, models.OrderStatusLoading, status)

	assert.Equal(t, models.OrderStatusSuccess, waitForTerminal(t, flow))
}

func TestOrderFlow_CreatedHookRunsBeforeSettlement(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{{status: models.PaymentStatusSuccessful}}}

	var (
		mu     sync.Mutex
		events []string
	)
	flow := newTestFlow(api, func(orderID string, status models.OrderStatus) {
		mu.Lock()
		events = append(events, "settled")
		mu.Unlock()
	})
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(true), func(order models.Order) {
		mu.Lock()
		events = append(events, "created")
		mu.Unlock()
	})
	require.NoError(t, err)

	waitForTerminal(t, flow)

	// Whatever the created hook persists about the order must be in place
	// before the terminal callback tries to settle it.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"created", "settled"}, events)
}

func TestOrderFlow_TerminalCallbackFires(t *testing.T) {
	api := &fakeOrderAPI{pollScript: []pollResult{{status: models.PaymentStatusSuccessful}}}

	type settled struct {
		orderID string
		status  models.OrderStatus
	}
	done := make(chan settled, 1)

	flow := newTestFlow(api, func(orderID string, status models.OrderStatus) {
		done <- settled{orderID, status}
	})
	defer flow.Stop()

	_, err := flow.Submit(context.Background(), cartRequest(true), nil)
	require.NoError(t, err)

	select {
	case got := <-done:
		assert.Equal(t, "ord-1", got.orderID)
		assert.Equal(t, models.OrderStatusSuccess, got.status)
	case <-time.After(time.Second):
		t.Fatal("terminal callback never fired")
	}
}
