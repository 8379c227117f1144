package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

const deeplinkFallbackURL = "https://play.google.com/store/apps/details?id=com.infinitepay.app"

type deeplinkCallback struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// DeeplinkProvider hands the client an app deep link carrying the amount and
// a callback URL the payment app will invoke. No network call is involved,
// so it is always available.
type DeeplinkProvider struct {
	callbackURL string
}

func NewDeeplinkProvider(callbackURL string) *DeeplinkProvider {
	return &DeeplinkProvider{callbackURL: strings.TrimSpace(callbackURL)}
}

func (p *DeeplinkProvider) Name() domain.ProviderName {
	return domain.ProviderInfinityPay
}

func (p *DeeplinkProvider) IsAvailable(ctx context.Context) bool {
	return true
}

func (p *DeeplinkProvider) InitializePayment(ctx context.Context, amountCents int64, orderID string) (*Instructions, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: orderId is required", domain.ErrValidation)
	}

	deeplink := fmt.Sprintf(
		"infinitepay://payment?amount=%d&order_id=%s&callback_url=%s",
		amountCents,
		url.QueryEscape(orderID),
		url.QueryEscape(p.callbackURL),
	)

	return &Instructions{
		Provider:    p.Name(),
		DeeplinkURL: deeplink,
		FallbackURL: deeplinkFallbackURL,
	}, nil
}

func (p *DeeplinkProvider) HandleCallback(payload []byte) CallbackResult {
	var cb deeplinkCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return CallbackResult{Diagnostic: fmt.Sprintf("malformed callback payload: %v", err)}
	}
	if strings.TrimSpace(cb.OrderID) == "" {
		return CallbackResult{Diagnostic: "callback payload missing order_id"}
	}

	result := CallbackResult{
		OrderID:       strings.TrimSpace(cb.OrderID),
		Success:       cb.Status == "approved",
		TransactionID: strings.TrimSpace(cb.TransactionID),
	}
	if !result.Success {
		result.Diagnostic = fmt.Sprintf("payment not approved: status=%q", cb.Status)
	}
	return result
}
