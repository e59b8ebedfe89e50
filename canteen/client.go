// Package canteen wraps the canteen backend REST API consumed by a station:
// catalog listing, activity/room lookups, kiosk identity, order creation and
// payment-status polling.
package canteen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/larsjuhl/kantine-kiosk/models"
)

// Config holds the connection settings for the backend.
type Config struct {
	BaseURL string
	// APIKey is sent as a bearer token when set. Stations on a trusted LAN
	// may run without one.
	APIKey  string
	Timeout time.Duration
}

// Client is a thin HTTP client for the backend's v1 API. All calls are
// bounded by the configured timeout so a wedged backend can never hang a
// station indefinitely.
type Client struct {
	config     Config
	httpClient *http.Client
}

const defaultTimeout = 10 * time.Second

// NewClient creates a backend client.
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListProducts fetches the product catalog. Order windows are returned as
// stored (UTC); conversion to station-local time is the caller's concern.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.doJSON(ctx, http.MethodGet, "/v1/products", nil, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ListOptions fetches the option catalog.
func (c *Client) ListOptions(ctx context.Context) ([]models.Option, error) {
	var options []models.Option
	if err := c.doJSON(ctx, http.MethodGet, "/v1/options", nil, &options); err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	return options, nil
}

// ListActivities fetches all activities known to the backend.
func (c *Client) ListActivities(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	if err := c.doJSON(ctx, http.MethodGet, "/v1/activities", nil, &activities); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// ActivityExists checks that an activity is still present. Any failure,
// whether not-found or transport, is returned as an error; callers treat
// them uniformly.
func (c *Client) ActivityExists(ctx context.Context, id string) error {
	var activity models.Activity
	if err := c.doJSON(ctx, http.MethodGet, "/v1/activities/"+id, nil, &activity); err != nil {
		return fmt.Errorf("activity %s: %w", id, err)
	}
	return nil
}

// RoomExists checks that a room is still present.
func (c *Client) RoomExists(ctx context.Context, id string) error {
	var room models.Room
	if err := c.doJSON(ctx, http.MethodGet, "/v1/rooms/"+id, nil, &room); err != nil {
		return fmt.Errorf("room %s: %w", id, err)
	}
	return nil
}

// CurrentKiosk fetches the identity of this terminal.
func (c *Client) CurrentKiosk(ctx context.Context) (models.Kiosk, error) {
	var kiosk models.Kiosk
	if err := c.doJSON(ctx, http.MethodGet, "/v1/kiosks/me", nil, &kiosk); err != nil {
		return models.Kiosk{}, fmt.Errorf("current kiosk: %w", err)
	}
	return kiosk, nil
}

// CreateOrder submits an order. An idempotency key is attached so a retried
// request after a network hiccup cannot create a duplicate order.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (models.Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.Order{}, fmt.Errorf("encode order: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v1/orders", bytes.NewReader(body))
	if err != nil {
		return models.Order{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	var order models.Order
	if err := c.send(httpReq, &order); err != nil {
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// PaymentStatus polls the payment status of an order.
func (c *Client) PaymentStatus(ctx context.Context, orderID string) (models.PaymentStatus, error) {
	var resp struct {
		PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/orders/"+orderID+"/paymentStatus", nil, &resp); err != nil {
		return "", fmt.Errorf("payment status for order %s: %w", orderID, err)
	}

	switch resp.PaymentStatus {
	case models.PaymentStatusPending, models.PaymentStatusSuccessful, models.PaymentStatusFailed:
		return resp.PaymentStatus, nil
	default:
		return "", fmt.Errorf("payment status for order %s: unknown status %q", orderID, resp.PaymentStatus)
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, truncate(data, 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
