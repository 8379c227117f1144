package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a payment attempt.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// ProviderName identifies a payment rail.
type ProviderName string

const (
	ProviderInfinityPay ProviderName = "infinity_pay"
	ProviderMercadoPago ProviderName = "mercado_pago"
	ProviderManual      ProviderName = "outros"
)

func (p ProviderName) String() string { return string(p) }

func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderInfinityPay, ProviderMercadoPago, ProviderManual:
		return true
	}
	return false
}

func ParseProviderFromString(s string) (ProviderName, error) {
	p := ProviderName(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: invalid provider %q", ErrValidation, s)
	}
	return p, nil
}

// DefaultMaxRetries bounds failed->processing retry cycles per attempt.
const DefaultMaxRetries = 3

// PaymentAttempt tracks one payment's lifecycle for one order, from
// initiation to a terminal outcome. Amounts are minor currency units.
type PaymentAttempt struct {
	ID            string
	OrderID       string
	UserID        string
	AmountCents   int64
	Provider      ProviderName
	Status        Status
	TransactionID *string
	ErrorMessage  *string
	RetryCount    int
	MaxRetries    int
	LastRetryAt   *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *PaymentAttempt) Validate() error {
	if strings.TrimSpace(p.OrderID) == "" {
		return fmt.Errorf("%w: orderId is required", ErrValidation)
	}
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if p.AmountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !p.Provider.IsValid() {
		return fmt.Errorf("%w: invalid provider %q", ErrValidation, p.Provider)
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, p.Status)
	}
	if p.RetryCount < 0 {
		return fmt.Errorf("%w: retryCount must not be negative", ErrValidation)
	}
	return nil
}

// IsTerminal reports whether no further automatic transition can occur:
// completed, cancelled, or failed with the retry budget spent.
func (p *PaymentAttempt) IsTerminal() bool {
	switch p.Status {
	case StatusCompleted, StatusCancelled:
		return true
	case StatusFailed:
		return p.RetryCount >= p.maxRetries()
	}
	return false
}

// IsSettled reports whether the attempt already reached a state in which
// inbound callbacks must be acknowledged without effect.
func (p *PaymentAttempt) IsSettled() bool {
	return p.Status == StatusCompleted || p.Status == StatusCancelled
}

// MarkProcessing records that provider instructions were returned.
func (p *PaymentAttempt) MarkProcessing() error {
	if p.Status != StatusPending {
		return fmt.Errorf("%w: %s -> processing", ErrIllegalTransition, p.Status)
	}
	p.Status = StatusProcessing
	return nil
}

// Complete applies a successful confirmation. TransactionID is set here and
// nowhere else, so transactionId != nil implies status == completed.
func (p *PaymentAttempt) Complete(transactionID string, now time.Time) error {
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> completed", ErrIllegalTransition, p.Status)
	}
	if strings.TrimSpace(transactionID) == "" {
		return fmt.Errorf("%w: transactionId is required for completion", ErrValidation)
	}
	p.Status = StatusCompleted
	p.TransactionID = &transactionID
	at := now.UTC()
	p.CompletedAt = &at
	p.ErrorMessage = nil
	return nil
}

// Fail applies a failed confirmation or a provider initiation error.
// CompletedAt is stamped only once the failure is terminal.
func (p *PaymentAttempt) Fail(message string, now time.Time) error {
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> failed", ErrIllegalTransition, p.Status)
	}
	p.Status = StatusFailed
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "payment failed"
	}
	p.ErrorMessage = &msg
	if p.RetryCount >= p.maxRetries() {
		at := now.UTC()
		p.CompletedAt = &at
	}
	return nil
}

// Retry moves a failed attempt back to processing while the retry budget
// lasts. RetryCount only ever increases for the life of the record.
func (p *PaymentAttempt) Retry(now time.Time) error {
	if p.Status != StatusFailed {
		return fmt.Errorf("%w: %s -> processing", ErrIllegalTransition, p.Status)
	}
	if p.RetryCount >= p.maxRetries() {
		return ErrRetryExhausted
	}
	p.Status = StatusProcessing
	p.RetryCount++
	at := now.UTC()
	p.LastRetryAt = &at
	return nil
}

// Cancel applies an explicit user cancellation. Terminal.
func (p *PaymentAttempt) Cancel() error {
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> cancelled", ErrIllegalTransition, p.Status)
	}
	p.Status = StatusCancelled
	return nil
}

func (p *PaymentAttempt) maxRetries() int {
	if p.MaxRetries > 0 {
		return p.MaxRetries
	}
	return DefaultMaxRetries
}
