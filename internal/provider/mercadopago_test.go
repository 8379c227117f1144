package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

func newMercadoPagoServer(t *testing.T, tokenCalls *atomic.Int64, failAuth bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			tokenCalls.Add(1)
			if failAuth {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "token-1",
				"expires_in":   3600,
			})
		case "/pos/integration/devices/payment":
			if r.Header.Get("Authorization") != "Bearer token-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode payment body: %v", err)
			}
			if body["external_reference"] != "o1" {
				t.Errorf("external_reference = %v, want o1", body["external_reference"])
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":        987654,
				"device_id": "dev-1",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestMercadoPagoProviderAvailabilityRequiresCredentials(t *testing.T) {
	t.Parallel()

	p := NewMercadoPagoProvider("https://api.mercadopago.com", "", "", "")
	if p.IsAvailable(context.Background()) {
		t.Fatal("provider without credentials must be unavailable")
	}
}

func TestMercadoPagoProviderAuthFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int64
	server := newMercadoPagoServer(t, &tokenCalls, true)
	defer server.Close()

	p := NewMercadoPagoProvider(server.URL, "id", "secret", "")
	if p.IsAvailable(context.Background()) {
		t.Fatal("auth failure must count as unavailable, not fatal")
	}
}

func TestMercadoPagoProviderInitializePaymentCachesToken(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int64
	server := newMercadoPagoServer(t, &tokenCalls, false)
	defer server.Close()

	p := NewMercadoPagoProvider(server.URL, "id", "secret", "")

	if !p.IsAvailable(context.Background()) {
		t.Fatal("provider with valid credentials should be available")
	}

	instr, err := p.InitializePayment(context.Background(), 15000, "o1")
	if err != nil {
		t.Fatalf("InitializePayment() error = %v", err)
	}
	if instr.Provider != domain.ProviderMercadoPago {
		t.Fatalf("provider = %s, want mercado_pago", instr.Provider)
	}
	if instr.PaymentID != "987654" {
		t.Fatalf("paymentId = %s, want 987654", instr.PaymentID)
	}
	if instr.DeviceID != "dev-1" {
		t.Fatalf("deviceId = %s, want dev-1", instr.DeviceID)
	}

	if _, err := p.InitializePayment(context.Background(), 2000, "o1"); err != nil {
		t.Fatalf("second InitializePayment() error = %v", err)
	}

	// One lazy authentication serves the probe and both initiations.
	if got := tokenCalls.Load(); got != 1 {
		t.Fatalf("token endpoint calls = %d, want 1 (cached until expiry)", got)
	}
}

func TestMercadoPagoProviderInitiationErrorIsCallError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "token-1", "expires_in": 3600})
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewMercadoPagoProvider(server.URL, "id", "secret", "")

	_, err := p.InitializePayment(context.Background(), 100, "o1")
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error = %v, want *CallError", err)
	}
	if !IsTransient(err) {
		t.Fatal("503 should classify as transient")
	}
}

func TestMercadoPagoProviderHandleCallback(t *testing.T) {
	t.Parallel()

	p := NewMercadoPagoProvider("https://api.mercadopago.com", "id", "secret", "")

	got := p.HandleCallback([]byte(`{"external_reference":"o1","status":"approved","payment_id":42}`))
	if !got.Success || got.OrderID != "o1" || got.TransactionID != "42" {
		t.Fatalf("unexpected result: %+v", got)
	}

	got = p.HandleCallback([]byte(`{"external_reference":"o1","status":"pending"}`))
	if got.Success {
		t.Fatal("non-approved status must not be a success")
	}
	if got.Diagnostic == "" {
		t.Fatal("diagnostic should be set for non-approved callback")
	}

	got = p.HandleCallback([]byte(`garbage`))
	if !got.Malformed() {
		t.Fatal("unparseable payload should report malformed, not panic")
	}
}
