package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
)

const (
	DefaultBaseURL = "https://api.coinbase.com"
	ordersPath     = "/v3/brokerage/orders"
)

// ErrMissingCredentials is returned when the client has no API key or secret.
var ErrMissingCredentials = errors.New("coinbase api key and secret are required")

// Credentials for the Coinbase REST API.
type Credentials struct {
	Key        string
	Secret     string
	Passphrase string
}

// OrderRequest is a spot order. An empty Price places a market order.
type OrderRequest struct {
	Side      string
	ProductID string
	Size      string
	Price     string
}

type orderBody struct {
	ClientOrderID string `json:"client_order_id"`
	Side          string `json:"side"`
	ProductID     string `json:"product_id"`
	Size          string `json:"size"`
	Type          string `json:"type"`
	LimitPrice    string `json:"limit_price,omitempty"`
}

// OrderResponse is the subset of the create-order reply the agent uses.
type OrderResponse struct {
	Success         bool   `json:"success"`
	OrderID         string `json:"order_id"`
	FailureReason   string `json:"failure_reason"`
	SuccessResponse struct {
		OrderID       string `json:"order_id"`
		ProductID     string `json:"product_id"`
		Side          string `json:"side"`
		ClientOrderID string `json:"client_order_id"`
	} `json:"success_response"`
	ErrorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"error_response"`
	ClientOrderID string `json:"-"`
}

// Reason names why the venue rejected the order.
func (r OrderResponse) Reason() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.FailureReason, r.ErrorResponse.Error, r.ErrorResponse.Message} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "rejected without reason"
	}
	return strings.Join(parts, ": ")
}

// ID returns the exchange order id wherever the reply put it.
func (r OrderResponse) ID() string {
	if r.SuccessResponse.OrderID != "" {
		return r.SuccessResponse.OrderID
	}
	return r.OrderID
}

// CoinbaseClient signs and sends REST requests.
type CoinbaseClient struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	now     func() time.Time
}

func NewCoinbaseClient(baseURL string, creds Credentials, httpClient *http.Client) *CoinbaseClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &CoinbaseClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		creds:   creds,
		http:    httpClient,
		now:     time.Now,
	}
}

// Sign returns the hex HMAC-SHA256 of timestamp+method+path+body keyed by secret.
func Sign(secret, timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// PlaceOrder submits a limit order when req.Price is set, a market order otherwise.
func (c *CoinbaseClient) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	if c.creds.Key == "" || c.creds.Secret == "" {
		return OrderResponse{}, ErrMissingCredentials
	}
	body := orderBody{
		ClientOrderID: uuid.NewString(),
		Side:          strings.ToUpper(req.Side),
		ProductID:     req.ProductID,
		Size:          req.Size,
		Type:          "market",
	}
	if req.Price != "" {
		body.Type = "limit"
		body.LimitPrice = req.Price
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("encode order: %w", err)
	}

	ts := strconv.FormatInt(c.now().Unix(), 10)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(payload))
	if err != nil {
		return OrderResponse{}, err
	}
	httpReq.Header.Set("CB-ACCESS-KEY", c.creds.Key)
	httpReq.Header.Set("CB-ACCESS-SIGN", Sign(c.creds.Secret, ts, http.MethodPost, ordersPath, payload))
	httpReq.Header.Set("CB-ACCESS-TIMESTAMP", ts)
	httpReq.Header.Set("CB-ACCESS-PASSPHRASE", c.creds.Passphrase)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("post order: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return OrderResponse{}, fmt.Errorf("read order response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return OrderResponse{}, fmt.Errorf("coinbase order rejected: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var out OrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return OrderResponse{}, fmt.Errorf("decode order response: %w", err)
	}
	out.ClientOrderID = body.ClientOrderID
	return out, nil
}
