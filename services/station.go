package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/larsjuhl/kantine-kiosk/models"
	"github.com/larsjuhl/kantine-kiosk/utils"
)

// StationMode selects what an order is placed against.
type StationMode string

const (
	// ModeActivity: event-based ordering from a kiosk bound to activities.
	ModeActivity StationMode = "activity"
	// ModeRoom: location-based ordering for a room.
	ModeRoom StationMode = "room"
)

// ErrEmptyCart is returned when a submit arrives without any product in the
// cart.
var ErrEmptyCart = errors.New("cart has no products selected")

// StationConfig configures one ordering terminal.
type StationConfig struct {
	Mode      StationMode
	ContextID string
	Location  *time.Location

	// Zero values fall back to the component defaults (1h catalog, 10s
	// availability, 1h session, 1s poll, 5m poll timeout).
	CatalogInterval      time.Duration
	AvailabilityInterval time.Duration
	SessionInterval      time.Duration
	PollInterval         time.Duration
	PollTimeout          time.Duration
}

// Backends bundles the collaborators a station is wired to. Kiosk may be nil
// in room mode.
type Backends struct {
	Catalog       CatalogAPI
	Orders        OrderAPI
	Kiosk         KioskAPI
	ContextExists ExistsFunc
}

// Station owns the whole ordering workflow of one terminal: the catalog
// snapshot, the cart, availability, session validation and the submission
// state machine. The cart and order status have no writer besides the
// station, so one mutex covers them.
type Station struct {
	cfg       StationConfig
	backends  Backends
	journal   *OrderJournal
	sessionID string

	catalog      *CatalogService
	availability *AvailabilityMonitor
	session      *SessionValidator
	flow         *OrderFlow

	mu            sync.Mutex
	cart          models.Cart
	kioskID       string
	activityCount int
	redirect      bool
}

// NewStation wires a station. journal may be nil to run without a local
// order journal.
func NewStation(cfg StationConfig, backends Backends, journal *OrderJournal) *Station {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	s := &Station{
		cfg:       cfg,
		backends:  backends,
		journal:   journal,
		sessionID: uuid.NewString(),
		cart:      models.NewCart(),
	}

	s.catalog = NewCatalogService(backends.Catalog, cfg.Location)
	if cfg.CatalogInterval > 0 {
		s.catalog.Interval = cfg.CatalogInterval
	}

	s.availability = NewAvailabilityMonitor(s.catalog)
	if cfg.AvailabilityInterval > 0 {
		s.availability.Interval = cfg.AvailabilityInterval
	}

	s.session = NewSessionValidator(backends.ContextExists, cfg.ContextID, s.signalRedirect)
	if cfg.SessionInterval > 0 {
		s.session.Interval = cfg.SessionInterval
	}

	s.flow = NewOrderFlow(backends.Orders, s.settleJournal)
	if cfg.PollInterval > 0 {
		s.flow.PollInterval = cfg.PollInterval
	}
	if cfg.PollTimeout > 0 {
		s.flow.PollTimeout = cfg.PollTimeout
	}

	return s
}

// Start loads the kiosk identity and the initial catalog, then launches the
// periodic monitors. Failures during startup are logged and tolerated: a
// station with a stale or empty catalog still runs and recovers on the next
// refresh cycle.
func (s *Station) Start(ctx context.Context) {
	utils.InfoLogger.Printf("Starting station %s in %s mode for context %s", s.sessionID, s.cfg.Mode, s.cfg.ContextID)

	if s.cfg.Mode == ModeActivity && s.backends.Kiosk != nil {
		s.loadKioskIdentity(ctx)
	}

	if err := s.catalog.Refresh(ctx); err != nil {
		utils.ErrorLogger.Printf("Initial catalog load failed, starting with empty catalog: %v", err)
	}

	s.catalog.Start(ctx)
	s.availability.Start()
	s.session.Start(ctx)
}

// Stop cancels every periodic task owned by the station. Nothing may mutate
// station state after Stop returns to the caller.
func (s *Station) Stop() {
	s.catalog.Stop()
	s.availability.Stop()
	s.session.Stop()
	s.flow.Stop()
}

func (s *Station) loadKioskIdentity(ctx context.Context) {
	kiosk, err := s.backends.Kiosk.CurrentKiosk(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("Could not load kiosk identity: %v", err)
		return
	}

	activities, err := s.backends.Kiosk.ListActivities(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("Could not list activities for kiosk %s: %v", kiosk.ID, err)
		activities = nil
	}

	// Only activities the kiosk is actually bound to count towards the
	// "return to selection on reset" decision.
	count := 0
	for _, activity := range activities {
		for _, bound := range kiosk.Activities {
			if bound.ID == activity.ID {
				count++
				break
			}
		}
	}

	s.mu.Lock()
	s.kioskID = kiosk.ID
	s.activityCount = count
	s.mu.Unlock()
}

// CartView is the read model the UI renders from.
type CartView struct {
	Cart           models.Cart `json:"cart"`
	Price          float64     `json:"price"`
	PriceFormatted string      `json:"priceFormatted"`
	FormIsValid    bool        `json:"formIsValid"`
}

// ChangeCart applies one increment/decrement/bulk delta to the cart.
func (s *Station) ChangeCart(id string, kind models.ItemKind, delta int) (CartView, error) {
	if !kind.Valid() {
		return CartView{}, fmt.Errorf("unknown item kind %q", kind)
	}

	s.mu.Lock()
	s.cart = s.cart.Change(id, kind, delta)
	cart := s.cart
	s.mu.Unlock()

	return s.view(cart), nil
}

// CartState returns the current cart with its derived price and validity.
func (s *Station) CartState() CartView {
	s.mu.Lock()
	cart := s.cart
	s.mu.Unlock()
	return s.view(cart)
}

func (s *Station) view(cart models.Cart) CartView {
	snapshot := s.catalog.Snapshot()
	price := TotalPrice(cart, snapshot.Products, snapshot.Options)
	return CartView{
		Cart:           cart,
		Price:          price,
		PriceFormatted: utils.FormatCurrencyDKK(price),
		FormIsValid:    cart.HasSelection(),
	}
}

// Catalog returns the current catalog snapshot.
func (s *Station) Catalog() Catalog {
	return s.catalog.Snapshot()
}

// Availability returns the product-id to orderable map.
func (s *Station) Availability() map[string]bool {
	return s.availability.Availability()
}

// Submit turns the cart into an order request for the station's context and
// hands it to the submission state machine. The cart itself stays untouched
// until Reset so a failed submission can be retried as-is.
func (s *Station) Submit(ctx context.Context, method models.PaymentMethod) (models.Order, error) {
	if !method.Valid() {
		return models.Order{}, fmt.Errorf("unknown payment method %q", method)
	}

	s.mu.Lock()
	cart := s.cart
	kioskID := s.kioskID
	s.mu.Unlock()

	if !cart.HasSelection() {
		return models.Order{}, ErrEmptyCart
	}

	req := models.OrderRequest{
		Products:     cart.Lines(models.ItemKindProduct),
		Options:      cart.Lines(models.ItemKindOption),
		SkipCheckout: method.SkipCheckout(),
	}
	switch s.cfg.Mode {
	case ModeRoom:
		req.RoomID = s.cfg.ContextID
	default:
		req.ActivityID = s.cfg.ContextID
		req.KioskID = kioskID
	}

	// The journal row must exist before the poller can settle it, so it is
	// written via the created hook, which runs before polling is armed.
	var record func(models.Order)
	if s.journal != nil {
		snapshot := s.catalog.Snapshot()
		total := TotalPrice(cart, snapshot.Products, snapshot.Options)
		record = func(order models.Order) {
			rec := &models.OrderRecord{
				OrderID:       order.ID,
				ContextID:     s.cfg.ContextID,
				Mode:          string(s.cfg.Mode),
				PaymentMethod: string(method),
				TotalAmount:   total,
				Status:        string(models.OrderStatusLoading),
				SubmittedAt:   time.Now(),
			}
			if err := s.journal.Record(rec); err != nil {
				utils.ErrorLogger.Printf("Could not journal order %s: %v", order.ID, err)
			}
		}
	}

	order, err := s.flow.Submit(ctx, req, record)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// OrderStatus returns the state machine's current state and order.
func (s *Station) OrderStatus() (models.OrderStatus, *models.Order) {
	return s.flow.Status()
}

// Reset clears the cart and returns the state machine to its idle baseline.
// The returned flag tells the UI to go back to context selection, which is
// the case when this kiosk serves more than one activity.
func (s *Station) Reset() (selectContext bool) {
	s.flow.Reset()

	s.mu.Lock()
	s.cart = models.NewCart()
	s.redirect = false
	selectContext = s.activityCount > 1
	s.mu.Unlock()

	utils.InfoLogger.Printf("Station %s reset (selectContext=%v)", s.sessionID, selectContext)
	return selectContext
}

// SessionView is the session validity read model.
type SessionView struct {
	State    SessionState `json:"state"`
	Redirect bool         `json:"redirect"`
}

// Session reports the last validation outcome and whether a redirect to
// context selection has been signalled since the last reset.
func (s *Station) Session() SessionView {
	s.mu.Lock()
	redirect := s.redirect
	s.mu.Unlock()
	return SessionView{
		State:    s.session.State(),
		Redirect: redirect,
	}
}

// Journal exposes the local order journal; nil when journalling is disabled.
func (s *Station) Journal() *OrderJournal {
	return s.journal
}

func (s *Station) signalRedirect() {
	s.mu.Lock()
	s.redirect = true
	s.mu.Unlock()
}

func (s *Station) settleJournal(orderID string, status models.OrderStatus) {
	if s.journal == nil || orderID == "" {
		return
	}
	if err := s.journal.Settle(orderID, status); err != nil {
		utils.ErrorLogger.Printf("Could not settle journal entry for order %s: %v", orderID, err)
	}
}
