// Package razorpay implements the payment.Gateway interface against the
// Razorpay orders API. One Client is constructed at startup and shared by
// reference across requests; it holds no mutable state beyond the HTTP client.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/findbooks/api/internal/domain/payment"
)

// DefaultBaseURL is the production Razorpay API endpoint.
const DefaultBaseURL = "https://api.razorpay.com"

var _ payment.Gateway = (*Client)(nil)

// Config holds gateway credentials and endpoint settings.
type Config struct {
	BaseURL string
	KeyID   string
	Secret  string
	// Timeout bounds each gateway call. Zero means 10s.
	Timeout time.Duration
}

// Client calls the gateway's REST API with basic auth.
type Client struct {
	baseURL string
	keyID   string
	secret  string
	http    *http.Client
}

// NewClient creates a gateway client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		keyID:   cfg.KeyID,
		secret:  cfg.Secret,
		http:    &http.Client{Timeout: timeout},
	}
}

// KeyID returns the gateway's public key identifier.
func (c *Client) KeyID() string {
	return c.keyID
}

type createOrderReq struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers an order with the gateway. Amount is in minor
// currency units. Errors are returned as-is; the caller decides whether to
// surface them, and nothing is retried.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*payment.GatewayOrder, error) {
	body, err := json.Marshal(createOrderReq{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "gateway request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, errors.Errorf("gateway returned %d: %s", resp.StatusCode, b)
	}

	var g payment.GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &g, nil
}
