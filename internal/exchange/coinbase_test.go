package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSignKnownVector(t *testing.T) {
	// echo -n '1700000000POST/v3/brokerage/orders{}' | openssl dgst -sha256 -hmac secret
	const want = "2bc2b0aec05e876caf5a2f928f90d2edf006e090001a985a4e2f232a74a6e0a5"
	if got := Sign("secret", "1700000000", "POST", "/v3/brokerage/orders", []byte("{}")); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestPlaceOrderSignsRequest(t *testing.T) {
	var (
		gotBody    map[string]string
		gotHeaders http.Header
		gotPath    string
		rawBody    []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		rawBody, _ = io.ReadAll(r.Body)
		_ = json.Unmarshal(rawBody, &gotBody)
		_, _ = w.Write([]byte(`{"success":true,"success_response":{"order_id":"abc-123","product_id":"BTC-USD","side":"BUY"}}`))
	}))
	defer server.Close()

	client := NewCoinbaseClient(server.URL, Credentials{Key: "k", Secret: "s", Passphrase: "p"}, server.Client())
	client.now = func() time.Time { return time.Unix(1700000000, 0) }

	resp, err := client.PlaceOrder(context.Background(), OrderRequest{Side: "buy", ProductID: "BTC-USD", Size: "0.01", Price: "42000"})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if resp.ID() != "abc-123" || !resp.Success {
		t.Fatalf("unexpected response %+v", resp)
	}
	if gotPath != "/v3/brokerage/orders" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotHeaders.Get("CB-ACCESS-KEY") != "k" || gotHeaders.Get("CB-ACCESS-PASSPHRASE") != "p" {
		t.Fatalf("missing auth headers: %v", gotHeaders)
	}
	if gotHeaders.Get("CB-ACCESS-TIMESTAMP") != "1700000000" {
		t.Fatalf("unexpected timestamp %s", gotHeaders.Get("CB-ACCESS-TIMESTAMP"))
	}
	want := Sign("s", "1700000000", "POST", "/v3/brokerage/orders", rawBody)
	if gotHeaders.Get("CB-ACCESS-SIGN") != want {
		t.Fatalf("signature does not cover the sent body")
	}
	if gotBody["type"] != "limit" || gotBody["limit_price"] != "42000" || gotBody["side"] != "BUY" {
		t.Fatalf("unexpected order body %v", gotBody)
	}
	if gotBody["client_order_id"] == "" || gotBody["client_order_id"] != resp.ClientOrderID {
		t.Fatalf("client order id not propagated: %v vs %s", gotBody["client_order_id"], resp.ClientOrderID)
	}
}

func TestPlaceOrderMarketWithoutPrice(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"success":true,"order_id":"m-1"}`))
	}))
	defer server.Close()

	client := NewCoinbaseClient(server.URL, Credentials{Key: "k", Secret: "s"}, server.Client())
	resp, err := client.PlaceOrder(context.Background(), OrderRequest{Side: "sell", ProductID: "ETH-USD", Size: "1"})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if resp.ID() != "m-1" {
		t.Fatalf("unexpected id %s", resp.ID())
	}
	if gotBody["type"] != "market" {
		t.Fatalf("expected market order, got %v", gotBody)
	}
	if _, ok := gotBody["limit_price"]; ok {
		t.Fatalf("market order must not carry limit_price")
	}
}

func TestPlaceOrderRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"INVALID_SIGNATURE"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewCoinbaseClient(server.URL, Credentials{Key: "k", Secret: "s"}, server.Client())
	_, err := client.PlaceOrder(context.Background(), OrderRequest{Side: "buy", ProductID: "BTC-USD", Size: "1"})
	if err == nil || !strings.Contains(err.Error(), "INVALID_SIGNATURE") {
		t.Fatalf("expected rejection error, got %v", err)
	}
}

func TestPlaceOrderMissingCredentials(t *testing.T) {
	client := NewCoinbaseClient("", Credentials{}, nil)
	_, err := client.PlaceOrder(context.Background(), OrderRequest{})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestPlaceOrderDecodesErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error_response":{"error":"INSUFFICIENT_FUND","message":"Insufficient balance in source account"}}`))
	}))
	defer server.Close()

	client := NewCoinbaseClient(server.URL, Credentials{Key: "k", Secret: "s"}, server.Client())
	resp, err := client.PlaceOrder(context.Background(), OrderRequest{Side: "buy", ProductID: "BTC-USD", Size: "1"})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected unsuccessful reply")
	}
	if got := resp.Reason(); got != "INSUFFICIENT_FUND: Insufficient balance in source account" {
		t.Fatalf("unexpected reason %q", got)
	}
}
