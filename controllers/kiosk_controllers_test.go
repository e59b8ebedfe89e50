package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsjuhl/kantine-kiosk/models"
	"github.com/larsjuhl/kantine-kiosk/services"
	"github.com/larsjuhl/kantine-kiosk/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubBackend struct {
	paymentStatus models.PaymentStatus
}

func (s *stubBackend) ListProducts(ctx context.Context) ([]models.Product, error) {
	return []models.Product{
		{ID: "P1", Name: "Sandwich", Price: 50,
			OrderWindow: models.OrderWindow{From: models.TimeOfDay{Hour: 0}, To: models.TimeOfDay{Hour: 23, Minute: 59}}},
	}, nil
}

func (s *stubBackend) ListOptions(ctx context.Context) ([]models.Option, error) {
	return []models.Option{{ID: "O1", Name: "Ekstra ost", Price: 5}}, nil
}

func (s *stubBackend) CreateOrder(ctx context.Context, req models.OrderRequest) (models.Order, error) {
	return models.Order{ID: "ord-1", ActivityID: req.ActivityID, SkipCheckout: req.SkipCheckout}, nil
}

func (s *stubBackend) PaymentStatus(ctx context.Context, orderID string) (models.PaymentStatus, error) {
	return s.paymentStatus, nil
}

func setupKioskRouter(t *testing.T) *gin.Engine {
	t.Helper()

	backend := &stubBackend{paymentStatus: models.PaymentStatusSuccessful}
	station := services.NewStation(
		services.StationConfig{
			Mode:         services.ModeActivity,
			ContextID:    "act-1",
			Location:     time.UTC,
			PollInterval: 5 * time.Millisecond,
		},
		services.Backends{
			Catalog:       backend,
			Orders:        backend,
			ContextExists: func(ctx context.Context, id string) error { return nil },
		},
		nil,
	)
	station.Start(context.Background())
	t.Cleanup(station.Stop)

	ctrl := NewKioskController(station)
	r := gin.New()
	r.GET("/kiosk/catalog", ctrl.GetCatalog)
	r.GET("/kiosk/availability", ctrl.GetAvailability)
	r.GET("/kiosk/cart", ctrl.GetCart)
	r.POST("/kiosk/cart/change", ctrl.ChangeCart)
	r.POST("/kiosk/orders", ctrl.SubmitOrder)
	r.GET("/kiosk/orders/status", ctrl.GetOrderStatus)
	r.POST("/kiosk/reset", ctrl.ResetStation)
	r.GET("/kiosk/session", ctrl.GetSession)
	r.GET("/kiosk/journal", ctrl.GetJournal)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestChangeCartAndReadBack(t *testing.T) {
	r := setupKioskRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/kiosk/cart/change", map[string]interface{}{
		"id": "P1", "kind": "products", "delta": 2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, 100.0, data["price"])
	assert.Equal(t, "100 kr.", data["priceFormatted"])
	assert.Equal(t, true, data["formIsValid"])

	w, resp = doJSON(t, r, http.MethodGet, "/kiosk/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = resp["data"].(map[string]interface{})
	cart := data["cart"].(map[string]interface{})
	products := cart["products"].(map[string]interface{})
	assert.Equal(t, 2.0, products["P1"])
}

func TestChangeCartAcceptsZeroDelta(t *testing.T) {
	r := setupKioskRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/kiosk/cart/change", map[string]interface{}{
		"id": "P1", "kind": "products", "delta": 0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, 0.0, data["price"])
	assert.Equal(t, false, data["formIsValid"])
}

func TestChangeCartRejectsUnknownKind(t *testing.T) {
	r := setupKioskRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/kiosk/cart/change", map[string]interface{}{
		"id": "P1", "kind": "drinks", "delta": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitEmptyCartRejected(t *testing.T) {
	r := setupKioskRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/kiosk/orders", map[string]interface{}{
		"paymentMethod": "cash",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmitAndPollStatus(t *testing.T) {
	r := setupKioskRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/kiosk/cart/change", map[string]interface{}{
		"id": "P1", "kind": "products", "delta": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/kiosk/orders", map[string]interface{}{
		"paymentMethod": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ord-1", data["_id"])

	require.Eventually(t, func() bool {
		w, resp := doJSON(t, r, http.MethodGet, "/kiosk/orders/status", nil)
		if w.Code != http.StatusOK {
			return false
		}
		data := resp["data"].(map[string]interface{})
		return data["orderStatus"] == "success"
	}, time.Second, 5*time.Millisecond)

	// Terminal state reached: reset clears the cart for the next customer.
	w, resp = doJSON(t, r, http.MethodPost, "/kiosk/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["selectContext"])

	w, resp = doJSON(t, r, http.MethodGet, "/kiosk/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["formIsValid"])
}

func TestSubmitUnknownPaymentMethod(t *testing.T) {
	r := setupKioskRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/kiosk/orders", map[string]interface{}{
		"paymentMethod": "goats",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalDisabledReturnsNotFound(t *testing.T) {
	r := setupKioskRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/kiosk/journal", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionEndpoint(t *testing.T) {
	r := setupKioskRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/kiosk/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "valid", data["state"])
	assert.Equal(t, false, data["redirect"])
}
