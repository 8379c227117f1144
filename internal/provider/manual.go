package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

type manualCallback struct {
	OrderID string `json:"orderId"`
}

// ManualProvider is the terminal fallback: always available, requires an
// operator to confirm the payment by hand and synthesizes its own
// transaction id on confirmation.
type ManualProvider struct {
	now func() time.Time
}

func NewManualProvider() *ManualProvider {
	return &ManualProvider{now: time.Now}
}

func (p *ManualProvider) Name() domain.ProviderName {
	return domain.ProviderManual
}

func (p *ManualProvider) IsAvailable(ctx context.Context) bool {
	return true
}

func (p *ManualProvider) InitializePayment(ctx context.Context, amountCents int64, orderID string) (*Instructions, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: orderId is required", domain.ErrValidation)
	}

	return &Instructions{
		Provider:                   p.Name(),
		RequiresManualConfirmation: true,
	}, nil
}

func (p *ManualProvider) HandleCallback(payload []byte) CallbackResult {
	var cb manualCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return CallbackResult{Diagnostic: fmt.Sprintf("malformed callback payload: %v", err)}
	}
	if strings.TrimSpace(cb.OrderID) == "" {
		return CallbackResult{Diagnostic: "callback payload missing orderId"}
	}

	return CallbackResult{
		OrderID:       strings.TrimSpace(cb.OrderID),
		Success:       true,
		TransactionID: fmt.Sprintf("MANUAL-%d", p.now().UnixMilli()),
	}
}
