package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultWebhookTimeout = 10 * time.Second

// SinkError reports a failed webhook delivery. Transient deliveries are
// worth redelivering; permanent ones are not.
type SinkError struct {
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *SinkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SinkError) Unwrap() error { return e.Cause }

// IsTransientDelivery reports whether err is a redeliverable sink failure.
func IsTransientDelivery(err error) bool {
	var sinkErr *SinkError
	if errors.As(err, &sinkErr) {
		return sinkErr.Transient
	}
	return false
}

type webhookEnvelope struct {
	Kind        string `json:"kind"`
	OrderID     string `json:"order_id"`
	AttemptID   string `json:"attempt_id"`
	UserID      string `json:"user_id"`
	Provider    string `json:"provider"`
	AmountCents int64  `json:"amount_cents"`
	Message     string `json:"message,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

// WebhookSink delivers settlement events to an operator-configured
// HTTP endpoint.
type WebhookSink struct {
	client   *resty.Client
	endpoint string
}

func NewWebhookSink(endpoint string) (*WebhookSink, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	client.SetRetryCount(0)

	return NewWebhookSinkWithClient(endpoint, client)
}

func NewWebhookSinkWithClient(endpoint string, client *resty.Client) (*WebhookSink, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookSink{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (s *WebhookSink) Deliver(ctx context.Context, event Event) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("sink is not initialized")
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid settlement event: %w", err)
	}

	reqBody := webhookEnvelope{
		Kind:        event.Kind.String(),
		OrderID:     event.OrderID,
		AttemptID:   event.AttemptID,
		UserID:      event.UserID,
		Provider:    event.Provider,
		AmountCents: event.AmountCents,
		Message:     event.Message,
		OccurredAt:  event.OccurredAt.UTC().Format(time.RFC3339),
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(s.endpoint)
	if err != nil {
		return &SinkError{
			Message:   "webhook request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return &SinkError{
			Message:   "webhook returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	responseBody := strings.TrimSpace(response.String())
	message := fmt.Sprintf("webhook returned status %d", statusCode)
	if responseBody != "" {
		message = fmt.Sprintf("%s: %s", message, responseBody)
	}

	return &SinkError{
		StatusCode: statusCode,
		Message:    message,
		Transient:  statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError,
	}
}
