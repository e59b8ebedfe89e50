package models

// PaymentMethod selects how the customer pays at the station.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

// Valid reports whether the method is one of the supported methods.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCard
}

// SkipCheckout reports whether the method settles without card confirmation.
func (m PaymentMethod) SkipCheckout() bool {
	return m == PaymentMethodCash
}

// OrderStatus is the station-local view of the current submission.
type OrderStatus string

const (
	// OrderStatusLoading is both the idle baseline and the state while the
	// create-order call is in flight.
	OrderStatusLoading         OrderStatus = "loading"
	OrderStatusAwaitingPayment OrderStatus = "awaitingPayment"
	OrderStatusSuccess         OrderStatus = "success"
	OrderStatusError           OrderStatus = "error"
)

// Terminal reports whether the status ends the current submission.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusSuccess || s == OrderStatusError
}

// PaymentStatus is the backend's answer when polled for an order's payment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// OrderRequest is the payload for creating an order. Exactly one of
// ActivityID or RoomID is set depending on the station mode; KioskID is
// only sent in activity mode.
type OrderRequest struct {
	KioskID      string      `json:"kioskId,omitempty"`
	ActivityID   string      `json:"activityId,omitempty"`
	RoomID       string      `json:"roomId,omitempty"`
	Products     []OrderLine `json:"products"`
	Options      []OrderLine `json:"options"`
	SkipCheckout bool        `json:"skipCheckout"`
}

// Order is the backend's view of a created order. It is a one-way snapshot:
// the station never modifies it after creation, it only polls its payment
// status.
type Order struct {
	ID           string      `json:"_id"`
	ActivityID   string      `json:"activityId,omitempty"`
	RoomID       string      `json:"roomId,omitempty"`
	Products     []OrderLine `json:"products"`
	Options      []OrderLine `json:"options"`
	SkipCheckout bool        `json:"skipCheckout"`
}
