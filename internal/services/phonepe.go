package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"andaman/internal/config"
)

// PhonePeClient talks to the PhonePe v2 checkout API: OAuth
// client-credentials token, order creation with a client-side redirect
// URL, and order status checks. The deprecated v1 "initiate" flow is
// intentionally not implemented; create-order is the authoritative path.
type PhonePeClient struct {
	cfg    config.PhonePeEnv
	client *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time

	now func() time.Time
}

func NewPhonePeClient(cfg config.PhonePeEnv) *PhonePeClient {
	return &PhonePeClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 20 * time.Second},
		now:    time.Now,
	}
}

type phonePeTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix seconds
	TokenType   string `json:"token_type"`
}

// accessToken returns a cached OAuth token, refreshing it when within a
// minute of expiry.
func (c *PhonePeClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(time.Minute).Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("client_version", "1")
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("phonepe auth request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("phonepe auth returned %d", res.StatusCode)
	}

	var payload phonePeTokenResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("phonepe auth response malformed: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("phonepe auth returned empty token")
	}

	c.token = payload.AccessToken
	c.tokenExp = time.Unix(payload.ExpiresAt, 0)
	return c.token, nil
}

// CreateOrderResult carries what the frontend needs to redirect the
// customer to the hosted checkout page.
type CreateOrderResult struct {
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirectUrl"`
	ExpireAt    int64  `json:"expireAt"`
}

type phonePeCreateOrderResponse struct {
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	RedirectURL string `json:"redirectUrl"`
	ExpireAt    int64  `json:"expireAt"`
}

// CreateOrder registers a checkout order for merchantOrderID worth
// amountPaise (PhonePe amounts are integer paise).
func (c *PhonePeClient) CreateOrder(ctx context.Context, merchantOrderID string, amountPaise int64) (CreateOrderResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return CreateOrderResult{}, err
	}

	body := map[string]any{
		"merchantOrderId": merchantOrderID,
		"amount":          amountPaise,
		"expireAfter":     1200,
		"paymentFlow": map[string]any{
			"type": "PG_CHECKOUT",
			"merchantUrls": map[string]any{
				"redirectUrl": c.cfg.RedirectURL,
			},
		},
	}
	buf, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/checkout/v2/pay", bytes.NewReader(buf))
	if err != nil {
		return CreateOrderResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "O-Bearer "+token)

	res, err := c.client.Do(req)
	if err != nil {
		return CreateOrderResult{}, fmt.Errorf("phonepe create order failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return CreateOrderResult{}, fmt.Errorf("phonepe create order returned %d", res.StatusCode)
	}

	var payload phonePeCreateOrderResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return CreateOrderResult{}, fmt.Errorf("phonepe create order response malformed: %w", err)
	}
	if payload.RedirectURL == "" {
		return CreateOrderResult{}, fmt.Errorf("phonepe create order returned no redirect url")
	}
	return CreateOrderResult{
		OrderID:     payload.OrderID,
		RedirectURL: payload.RedirectURL,
		ExpireAt:    payload.ExpireAt,
	}, nil
}

// OrderStatus is the normalized gateway state for one order.
type OrderStatus struct {
	OrderID string `json:"orderId"`
	State   string `json:"state"` // PENDING | COMPLETED | FAILED
	Amount  int64  `json:"amount"`
}

// Status fetches the authoritative order state. Callers must rely on
// this (not the redirect) before treating a payment as settled.
func (c *PhonePeClient) Status(ctx context.Context, merchantOrderID string) (OrderStatus, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return OrderStatus{}, err
	}

	endpoint := fmt.Sprintf("%s/checkout/v2/order/%s/status", c.cfg.BaseURL, url.PathEscape(merchantOrderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return OrderStatus{}, err
	}
	req.Header.Set("Authorization", "O-Bearer "+token)

	res, err := c.client.Do(req)
	if err != nil {
		return OrderStatus{}, fmt.Errorf("phonepe status failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return OrderStatus{}, fmt.Errorf("phonepe status returned %d", res.StatusCode)
	}

	var payload OrderStatus
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return OrderStatus{}, fmt.Errorf("phonepe status response malformed: %w", err)
	}
	return payload, nil
}

// VerifyCallback checks the X-VERIFY header on a server-to-server
// callback: SHA256(base64Body + saltKey) + "###" + saltIndex. The
// payload must not be trusted until this passes.
func (c *PhonePeClient) VerifyCallback(base64Body, xVerify string) bool {
	expected := CallbackSignature(base64Body, c.cfg.SaltKey, c.cfg.SaltIndex)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(xVerify))) == 1
}

// CallbackSignature computes the PhonePe callback checksum.
func CallbackSignature(base64Body, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(base64Body + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}

// DecodeCallback decodes the base64 callback payload after signature
// verification.
func DecodeCallback(base64Body string) (CallbackPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(base64Body))
	if err != nil {
		return CallbackPayload{}, fmt.Errorf("callback payload is not valid base64: %w", err)
	}
	var payload CallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return CallbackPayload{}, fmt.Errorf("callback payload malformed: %w", err)
	}
	return payload, nil
}

// CallbackPayload is the decoded server-to-server notification.
type CallbackPayload struct {
	Event   string `json:"event"`
	Payload struct {
		MerchantOrderID string `json:"merchantOrderId"`
		OrderID         string `json:"orderId"`
		State           string `json:"state"`
		Amount          int64  `json:"amount"`
	} `json:"payload"`
}
