package provider

import (
	"context"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

// Provider is the outbound payment rail port. Implementations must keep
// IsAvailable total (unavailability is false, never an error) and
// HandleCallback total (malformed payloads become Success=false with a
// diagnostic, never a panic or error).
type Provider interface {
	Name() domain.ProviderName
	IsAvailable(ctx context.Context) bool
	InitializePayment(ctx context.Context, amountCents int64, orderID string) (*Instructions, error)
	HandleCallback(payload []byte) CallbackResult
}

// Instructions is whatever the client needs to complete a payment: a
// deep-link URL, a device/session reference, or a manual-confirmation flag.
type Instructions struct {
	Provider                   domain.ProviderName `json:"provider"`
	DeeplinkURL                string              `json:"deeplinkUrl,omitempty"`
	FallbackURL                string              `json:"fallbackUrl,omitempty"`
	PaymentID                  string              `json:"paymentId,omitempty"`
	DeviceID                   string              `json:"deviceId,omitempty"`
	RequiresManualConfirmation bool                `json:"requiresManualConfirmation,omitempty"`
}

// CallbackResult is the canonical interpretation of a provider callback.
type CallbackResult struct {
	OrderID       string
	Success       bool
	TransactionID string
	Diagnostic    string
}

// Malformed reports whether the payload could not even be correlated to an
// order. Such callbacks are acknowledged at the boundary but apply nothing.
func (r CallbackResult) Malformed() bool {
	return r.OrderID == ""
}
