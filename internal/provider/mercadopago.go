package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

const (
	defaultMercadoPagoTimeout = 10 * time.Second
	// tokenExpirySlack keeps a margin so a token is never used at the edge
	// of its lifetime.
	tokenExpirySlack = 30 * time.Second
)

type mercadoPagoTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type mercadoPagoPaymentResponse struct {
	ID       json.Number `json:"id"`
	DeviceID string      `json:"device_id"`
}

type mercadoPagoCallback struct {
	ExternalReference string      `json:"external_reference"`
	Status            string      `json:"status"`
	PaymentID         json.Number `json:"payment_id"`
}

// MercadoPagoProvider talks to the hosted payment API with client
// credentials. It is available only when credentials are configured and a
// bearer token can be obtained; the token is fetched lazily and cached
// until expiry. Authentication failure counts as unavailable, never fatal.
type MercadoPagoProvider struct {
	client       *resty.Client
	clientID     string
	clientSecret string
	deviceID     string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	now func() time.Time
}

func NewMercadoPagoProvider(baseURL, clientID, clientSecret, deviceID string) *MercadoPagoProvider {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	client.SetTimeout(defaultMercadoPagoTimeout)
	client.SetRetryCount(0)

	return &MercadoPagoProvider{
		client:       client,
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		deviceID:     strings.TrimSpace(deviceID),
		now:          time.Now,
	}
}

func (p *MercadoPagoProvider) Name() domain.ProviderName {
	return domain.ProviderMercadoPago
}

func (p *MercadoPagoProvider) IsAvailable(ctx context.Context) bool {
	if p == nil || p.clientID == "" || p.clientSecret == "" {
		return false
	}
	_, err := p.bearerToken(ctx)
	return err == nil
}

func (p *MercadoPagoProvider) InitializePayment(ctx context.Context, amountCents int64, orderID string) (*Instructions, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: orderId is required", domain.ErrValidation)
	}

	token, err := p.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"amount":             amountCents,
		"external_reference": orderID,
	}
	// A configured device pins the payment to one POS terminal; without it
	// the API picks the account default.
	if p.deviceID != "" {
		body["device_id"] = p.deviceID
	}

	var payment mercadoPagoPaymentResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(token).
		SetBody(body).
		SetResult(&payment).
		Post("/pos/integration/devices/payment")
	if err != nil {
		return nil, &CallError{Message: "payment initiation request failed", Transient: true, Cause: err}
	}
	if response.IsError() {
		if response.StatusCode() == 401 {
			// Token may have been revoked server-side; drop the cache so the
			// next call re-authenticates.
			p.invalidateToken()
		}
		return nil, &CallError{
			StatusCode: response.StatusCode(),
			Message:    fmt.Sprintf("payment initiation rejected: %s", strings.TrimSpace(response.String())),
			Transient:  isTransientHTTPStatus(response.StatusCode()),
		}
	}

	return &Instructions{
		Provider:  p.Name(),
		PaymentID: payment.ID.String(),
		DeviceID:  payment.DeviceID,
	}, nil
}

func (p *MercadoPagoProvider) HandleCallback(payload []byte) CallbackResult {
	var cb mercadoPagoCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return CallbackResult{Diagnostic: fmt.Sprintf("malformed callback payload: %v", err)}
	}
	if strings.TrimSpace(cb.ExternalReference) == "" {
		return CallbackResult{Diagnostic: "callback payload missing external_reference"}
	}

	result := CallbackResult{
		OrderID:       strings.TrimSpace(cb.ExternalReference),
		Success:       cb.Status == "approved",
		TransactionID: cb.PaymentID.String(),
	}
	if !result.Success {
		result.Diagnostic = fmt.Sprintf("payment not approved: status=%q", cb.Status)
	}
	return result
}

func (p *MercadoPagoProvider) bearerToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && p.now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	var token mercadoPagoTokenResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"client_id":     p.clientID,
			"client_secret": p.clientSecret,
			"grant_type":    "client_credentials",
		}).
		SetResult(&token).
		Post("/oauth/token")
	if err != nil {
		return "", &CallError{Message: "authentication request failed", Transient: true, Cause: err}
	}
	if response.IsError() {
		return "", &CallError{
			StatusCode: response.StatusCode(),
			Message:    "authentication rejected",
			Transient:  isTransientHTTPStatus(response.StatusCode()),
		}
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return "", &CallError{Message: "authentication returned empty token", Transient: true}
	}

	ttl := time.Duration(token.ExpiresIn) * time.Second
	if ttl <= tokenExpirySlack {
		ttl = time.Hour
	}

	p.accessToken = token.AccessToken
	p.tokenExpiry = p.now().Add(ttl - tokenExpirySlack)
	return p.accessToken, nil
}

func (p *MercadoPagoProvider) invalidateToken() {
	p.mu.Lock()
	p.accessToken = ""
	p.tokenExpiry = time.Time{}
	p.mu.Unlock()
}
