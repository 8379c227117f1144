package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/atelier-erp/settlement-engine/internal/domain"
	"github.com/atelier-erp/settlement-engine/internal/service"
)

type ObligationService interface {
	Create(ctx context.Context, userID string, input service.CreateObligationInput) (*service.CreateObligationResult, error)
	Overview(ctx context.Context, userID string) (*service.ObligationOverview, error)
	MarkPaid(ctx context.Context, userID string, ids []string) (int64, error)
}

type ObligationHandler struct {
	service ObligationService
}

func NewObligationHandler(service ObligationService) (*ObligationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("obligation service is required")
	}
	return &ObligationHandler{service: service}, nil
}

func RegisterObligationRoutes(router fiber.Router, service ObligationService) error {
	h, err := NewObligationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/accounts-payable", h.CreateObligation)
	v1.Get("/accounts-payable", h.ListObligations)
	v1.Put("/accounts-payable/mark-as-paid", h.MarkAsPaid)

	return nil
}

type createObligationRequest struct {
	Type              string  `json:"type"`
	Description       string  `json:"description"`
	SupplierID        *string `json:"supplierId,omitempty"`
	ProductID         *string `json:"productId,omitempty"`
	Quantity          *int    `json:"quantity,omitempty"`
	TotalValue        float64 `json:"totalValue"`
	DueDate           string  `json:"dueDate,omitempty"`
	DueDay            *int    `json:"dueDay,omitempty"`
	IsRecurring       bool    `json:"isRecurring"`
	IsInstallment     bool    `json:"isInstallment"`
	TotalInstallments int     `json:"totalInstallments,omitempty"`
}

type obligationResponse struct {
	ID                    string     `json:"id"`
	Type                  string     `json:"type"`
	Description           string     `json:"description"`
	SupplierID            *string    `json:"supplierId,omitempty"`
	ProductID             *string    `json:"productId,omitempty"`
	Quantity              *int       `json:"quantity,omitempty"`
	TotalValueCents       int64      `json:"totalValueCents"`
	InstallmentValueCents int64      `json:"installmentValueCents,omitempty"`
	DueDate               time.Time  `json:"dueDate"`
	DueDay                *int       `json:"dueDay,omitempty"`
	IsPaid                bool       `json:"isPaid"`
	IsInstallment         bool       `json:"isInstallment"`
	InstallmentNumber     int        `json:"installmentNumber,omitempty"`
	TotalInstallments     int        `json:"totalInstallments,omitempty"`
	ParentInstallmentID   *string    `json:"parentInstallmentId,omitempty"`
	CreatedAt             time.Time  `json:"createdAt,omitempty"`
}

type recurringAccountResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	SupplierID      *string   `json:"supplierId,omitempty"`
	TotalValueCents int64     `json:"totalValueCents"`
	DueDay          int       `json:"dueDay"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

type createObligationResponse struct {
	Obligations      []obligationResponse      `json:"obligations,omitempty"`
	RecurringAccount *recurringAccountResponse `json:"recurringAccount,omitempty"`
}

type listObligationsResponse struct {
	Obligations  []obligationResponse       `json:"obligations"`
	Installments []obligationResponse       `json:"installments"`
	Recurring    []recurringAccountResponse `json:"recurring"`
}

type markAsPaidRequest struct {
	IDs []string `json:"ids"`
}

func (h *ObligationHandler) CreateObligation(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	var req createObligationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	input, err := requestToObligationInput(req)
	if err != nil {
		return toHTTPError(err)
	}

	result, err := h.service.Create(c.Context(), userID, input)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(createObligationResponse{
		Obligations:      toObligationResponses(result.Obligations),
		RecurringAccount: toRecurringResponse(result.RecurringAccount),
	})
}

func (h *ObligationHandler) ListObligations(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	overview, err := h.service.Overview(c.Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(listObligationsResponse{
		Obligations:  toObligationResponses(overview.Obligations),
		Installments: toObligationResponses(overview.Installments),
		Recurring:    toRecurringResponses(overview.Recurring),
	})
}

func (h *ObligationHandler) MarkAsPaid(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	var req markAsPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := h.service.MarkPaid(c.Context(), userID, req.IDs)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"updated": updated,
	})
}

func requestToObligationInput(req createObligationRequest) (service.CreateObligationInput, error) {
	obligationType, err := domain.ParseObligationTypeFromString(req.Type)
	if err != nil {
		return service.CreateObligationInput{}, err
	}

	if req.TotalValue <= 0 {
		return service.CreateObligationInput{}, fmt.Errorf("%w: totalValue must be positive", domain.ErrValidation)
	}

	input := service.CreateObligationInput{
		Type:              obligationType,
		Description:       strings.TrimSpace(req.Description),
		SupplierID:        req.SupplierID,
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		TotalValueCents:   toCents(req.TotalValue),
		DueDay:            req.DueDay,
		IsRecurring:       req.IsRecurring,
		IsInstallment:     req.IsInstallment,
		TotalInstallments: req.TotalInstallments,
	}

	if trimmed := strings.TrimSpace(req.DueDate); trimmed != "" {
		due, err := parseDueDate(trimmed)
		if err != nil {
			return service.CreateObligationInput{}, err
		}
		input.DueDate = &due
	}

	return input, nil
}

// parseDueDate accepts RFC3339 or a bare date.
func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: dueDate must be RFC3339 or YYYY-MM-DD", domain.ErrValidation)
}

func toObligationResponses(obligations []domain.Obligation) []obligationResponse {
	responses := make([]obligationResponse, 0, len(obligations))
	for i := range obligations {
		responses = append(responses, toObligationResponse(&obligations[i]))
	}
	return responses
}

func toObligationResponse(o *domain.Obligation) obligationResponse {
	if o == nil {
		return obligationResponse{}
	}

	return obligationResponse{
		ID:                    o.ID,
		Type:                  o.Type.String(),
		Description:           o.Description,
		SupplierID:            o.SupplierID,
		ProductID:             o.ProductID,
		Quantity:              o.Quantity,
		TotalValueCents:       o.TotalValueCents,
		InstallmentValueCents: o.InstallmentValueCents,
		DueDate:               o.DueDate,
		DueDay:                o.DueDay,
		IsPaid:                o.IsPaid,
		IsInstallment:         o.IsInstallment,
		InstallmentNumber:     o.InstallmentNumber,
		TotalInstallments:     o.TotalInstallments,
		ParentInstallmentID:   o.ParentInstallmentID,
		CreatedAt:             o.CreatedAt,
	}
}

func toRecurringResponses(accounts []domain.RecurringAccount) []recurringAccountResponse {
	responses := make([]recurringAccountResponse, 0, len(accounts))
	for i := range accounts {
		if resp := toRecurringResponse(&accounts[i]); resp != nil {
			responses = append(responses, *resp)
		}
	}
	return responses
}

func toRecurringResponse(r *domain.RecurringAccount) *recurringAccountResponse {
	if r == nil {
		return nil
	}

	return &recurringAccountResponse{
		ID:              r.ID,
		Type:            r.Type.String(),
		Description:     r.Description,
		SupplierID:      r.SupplierID,
		TotalValueCents: r.TotalValueCents,
		DueDay:          r.DueDay,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
	}
}
