package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/atelier-erp/settlement-engine/internal/domain"
	"github.com/atelier-erp/settlement-engine/internal/provider"
	"github.com/atelier-erp/settlement-engine/internal/service"
)

const userIDHeader = "X-User-ID"

// callbackTokenHeader carries the optional shared secret providers echo
// back on callbacks.
const callbackTokenHeader = "X-Callback-Token"

type SettlementService interface {
	Initiate(ctx context.Context, userID, orderID string, amountCents int64) (*service.InitiateResult, error)
	HandleCallback(ctx context.Context, providerName string, payload []byte) (*service.CallbackOutcome, error)
	Retry(ctx context.Context, userID, attemptID string) (*service.InitiateResult, error)
	Cancel(ctx context.Context, userID, attemptID string) (*domain.PaymentAttempt, error)
	Get(ctx context.Context, userID, attemptID string) (*domain.PaymentAttempt, error)
}

type PaymentHandler struct {
	service       SettlementService
	callbackToken string
}

func NewPaymentHandler(service SettlementService, callbackToken string) (*PaymentHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("settlement service is required")
	}
	return &PaymentHandler{service: service, callbackToken: callbackToken}, nil
}

func RegisterPaymentRoutes(router fiber.Router, service SettlementService, callbackToken string) error {
	h, err := NewPaymentHandler(service, callbackToken)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/payments/initiate", h.InitiatePayment)
	v1.Post("/payments/callback/:provider", h.ProviderCallback)
	v1.Post("/payments/:id/retry", h.RetryPayment)
	v1.Post("/payments/:id/cancel", h.CancelPayment)
	v1.Get("/payments/:id", h.GetPayment)

	return nil
}

type initiatePaymentRequest struct {
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
}

type instructionsResponse struct {
	Provider                   string `json:"provider"`
	DeeplinkURL                string `json:"deeplinkUrl,omitempty"`
	FallbackURL                string `json:"fallbackUrl,omitempty"`
	PaymentID                  string `json:"paymentId,omitempty"`
	DeviceID                   string `json:"deviceId,omitempty"`
	RequiresManualConfirmation bool   `json:"requiresManualConfirmation"`
}

type attemptResponse struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"orderId"`
	Provider      string     `json:"provider"`
	Status        string     `json:"status"`
	AmountCents   int64      `json:"amountCents"`
	TransactionID *string    `json:"transactionId,omitempty"`
	ErrorMessage  *string    `json:"errorMessage,omitempty"`
	RetryCount    int        `json:"retryCount"`
	MaxRetries    int        `json:"maxRetries"`
	LastRetryAt   *time.Time `json:"lastRetryAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt,omitempty"`
}

type initiatePaymentResponse struct {
	Attempt      attemptResponse       `json:"attempt"`
	Instructions *instructionsResponse `json:"instructions,omitempty"`
}

type callbackResponse struct {
	Received  bool   `json:"received"`
	Applied   bool   `json:"applied"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Status    string `json:"status,omitempty"`
}

func (h *PaymentHandler) InitiatePayment(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	var req initiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "orderId is required")
	}
	if req.Amount < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
	}

	result, err := h.service.Initiate(c.Context(), userID, strings.TrimSpace(req.OrderID), toCents(req.Amount))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(initiatePaymentResponse{
		Attempt:      toAttemptResponse(result.Attempt),
		Instructions: toInstructionsResponse(result.Instructions),
	})
}

// ProviderCallback acknowledges every business outcome with 200 so the
// provider stops redelivering; only structurally invalid payloads and
// unknown provider names earn a 400.
func (h *PaymentHandler) ProviderCallback(c *fiber.Ctx) error {
	if h.callbackToken != "" && c.Get(callbackTokenHeader) != h.callbackToken {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid callback token")
	}

	providerName := strings.TrimSpace(c.Params("provider"))

	outcome, err := h.service.HandleCallback(c.Context(), providerName, c.Body())
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if errors.Is(err, domain.ErrNotFound) {
			// Callback for an order this service never issued an
			// attempt for. Acknowledged and dropped.
			return c.Status(fiber.StatusOK).JSON(callbackResponse{Received: true})
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(callbackResponse{
		Received:  true,
		Applied:   !outcome.Duplicate,
		Duplicate: outcome.Duplicate,
		Status:    outcome.Attempt.Status.String(),
	})
}

func (h *PaymentHandler) RetryPayment(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(c.Params("id"))
	result, err := h.service.Retry(c.Context(), userID, id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(initiatePaymentResponse{
		Attempt:      toAttemptResponse(result.Attempt),
		Instructions: toInstructionsResponse(result.Instructions),
	})
}

func (h *PaymentHandler) CancelPayment(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(c.Params("id"))
	attempt, err := h.service.Cancel(c.Context(), userID, id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toAttemptResponse(attempt))
}

func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(c.Params("id"))
	attempt, err := h.service.Get(c.Context(), userID, id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toAttemptResponse(attempt))
}

func requestUserID(c *fiber.Ctx) (string, error) {
	userID := strings.TrimSpace(c.Get(userIDHeader))
	if userID == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "X-User-ID header is required")
	}
	return userID, nil
}

// toCents converts a currency-unit amount to minor units, rounding to the
// nearest cent.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func toInstructionsResponse(in *provider.Instructions) *instructionsResponse {
	if in == nil {
		return nil
	}
	return &instructionsResponse{
		Provider:                   in.Provider.String(),
		DeeplinkURL:                in.DeeplinkURL,
		FallbackURL:                in.FallbackURL,
		PaymentID:                  in.PaymentID,
		DeviceID:                   in.DeviceID,
		RequiresManualConfirmation: in.RequiresManualConfirmation,
	}
}

func toAttemptResponse(p *domain.PaymentAttempt) attemptResponse {
	if p == nil {
		return attemptResponse{}
	}

	return attemptResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Provider:      p.Provider.String(),
		Status:        p.Status.String(),
		AmountCents:   p.AmountCents,
		TransactionID: p.TransactionID,
		ErrorMessage:  p.ErrorMessage,
		RetryCount:    p.RetryCount,
		MaxRetries:    p.MaxRetries,
		LastRetryAt:   p.LastRetryAt,
		CompletedAt:   p.CompletedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrRetryExhausted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
