package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atelier-erp/settlement-engine/internal/domain"
	"github.com/atelier-erp/settlement-engine/internal/observability"
	"github.com/atelier-erp/settlement-engine/internal/repository"
)

// ObligationService expands accounts-payable requests into persisted rows:
// one-off obligations, exact-sum installment groups, recurring templates,
// or recurring installment groups pinned to a day of month.
type ObligationService struct {
	obligations repository.ObligationRepository
	recurring   repository.RecurringRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// CreateObligationInput is the normalized creation request. Amounts are
// minor currency units.
type CreateObligationInput struct {
	Type              domain.ObligationType
	Description       string
	SupplierID        *string
	ProductID         *string
	Quantity          *int
	TotalValueCents   int64
	DueDate           *time.Time
	DueDay            *int
	IsRecurring       bool
	IsInstallment     bool
	TotalInstallments int
}

// CreateObligationResult reports what the request expanded into. Exactly
// one of the two shapes is populated for a pure recurring request.
type CreateObligationResult struct {
	Obligations      []domain.Obligation
	RecurringAccount *domain.RecurringAccount
}

// ObligationOverview groups a tenant's payables the way the ledger screen
// consumes them.
type ObligationOverview struct {
	Obligations  []domain.Obligation
	Installments []domain.Obligation
	Recurring    []domain.RecurringAccount
}

func NewObligationService(
	obligations repository.ObligationRepository,
	recurring repository.RecurringRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*ObligationService, error) {
	if obligations == nil {
		return nil, fmt.Errorf("obligation repository is required")
	}
	if recurring == nil {
		return nil, fmt.Errorf("recurring repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ObligationService{
		obligations: obligations,
		recurring:   recurring,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create expands the request into rows and persists them atomically.
func (s *ObligationService) Create(ctx context.Context, userID string, input CreateObligationInput) (*CreateObligationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// The explicit flag routes into the installment branch even when
	// totalInstallments is absent, so its >= 2 validation fires instead of
	// silently creating a one-off row.
	isInstallment := input.IsInstallment ||
		input.TotalInstallments > 0 ||
		input.Type == domain.ObligationInstallment

	switch {
	case isInstallment && input.IsRecurring:
		return s.createRecurringInstallments(ctx, userID, input)
	case isInstallment:
		return s.createInstallments(ctx, userID, input)
	case input.IsRecurring:
		return s.createRecurringTemplate(ctx, userID, input)
	default:
		return s.createOneOff(ctx, userID, input)
	}
}

func (s *ObligationService) createOneOff(ctx context.Context, userID string, input CreateObligationInput) (*CreateObligationResult, error) {
	if input.DueDate == nil {
		return nil, fmt.Errorf("%w: dueDate is required", domain.ErrValidation)
	}

	obligation := domain.Obligation{
		ID:              uuid.NewString(),
		UserID:          userID,
		Type:            input.Type,
		Description:     input.Description,
		SupplierID:      input.SupplierID,
		ProductID:       input.ProductID,
		Quantity:        input.Quantity,
		TotalValueCents: input.TotalValueCents,
		DueDate:         input.DueDate.UTC(),
	}
	if err := obligation.Validate(); err != nil {
		return nil, err
	}

	batch := []*domain.Obligation{&obligation}
	if err := s.obligations.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	s.metrics.IncObligationBatch("one_off")
	s.logger.Info("obligation created",
		zap.String("obligationId", obligation.ID),
		zap.String("type", obligation.Type.String()),
	)

	return &CreateObligationResult{Obligations: []domain.Obligation{obligation}}, nil
}

// createInstallments expands the total into TotalInstallments rows one
// month apart. The split is exact: row values sum to the requested total,
// with the rounding remainder folded into the last row.
func (s *ObligationService) createInstallments(ctx context.Context, userID string, input CreateObligationInput) (*CreateObligationResult, error) {
	if input.TotalInstallments < 2 {
		return nil, fmt.Errorf("%w: totalInstallments must be >= 2", domain.ErrValidation)
	}
	if input.DueDate == nil {
		return nil, fmt.Errorf("%w: dueDate is required", domain.ErrValidation)
	}

	parts := domain.SplitInstallments(input.TotalValueCents, input.TotalInstallments)
	firstDue := input.DueDate.UTC()
	anchorID := uuid.NewString()

	rows := make([]*domain.Obligation, 0, input.TotalInstallments)
	for i, part := range parts {
		id := anchorID
		var parent *string
		if i > 0 {
			id = uuid.NewString()
			parentID := anchorID
			parent = &parentID
		}

		row := &domain.Obligation{
			ID:                    id,
			UserID:                userID,
			Type:                  input.Type,
			Description:           fmt.Sprintf("%s (%d/%d)", input.Description, i+1, input.TotalInstallments),
			SupplierID:            input.SupplierID,
			ProductID:             input.ProductID,
			Quantity:              input.Quantity,
			TotalValueCents:       input.TotalValueCents,
			InstallmentValueCents: part,
			DueDate:               domain.AddMonthsClamped(firstDue, i),
			DueDay:                input.DueDay,
			IsInstallment:         true,
			InstallmentNumber:     i + 1,
			TotalInstallments:     input.TotalInstallments,
			ParentInstallmentID:   parent,
		}
		if err := row.Validate(); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if err := s.obligations.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}

	s.metrics.IncObligationBatch("installment")
	s.logger.Info("installment group created",
		zap.String("groupId", anchorID),
		zap.Int("installments", input.TotalInstallments),
		zap.Int64("totalCents", input.TotalValueCents),
	)

	created := make([]domain.Obligation, 0, len(rows))
	for _, row := range rows {
		created = append(created, *row)
	}
	return &CreateObligationResult{Obligations: created}, nil
}

// createRecurringInstallments is the installment expansion with each row
// pinned to a day of month instead of a concrete first due date.
func (s *ObligationService) createRecurringInstallments(ctx context.Context, userID string, input CreateObligationInput) (*CreateObligationResult, error) {
	if input.DueDay == nil {
		return nil, fmt.Errorf("%w: dueDay is required for recurring installments", domain.ErrValidation)
	}

	firstDue := nextDueDate(s.now(), *input.DueDay)
	withDate := input
	withDate.DueDate = &firstDue

	result, err := s.createInstallments(ctx, userID, withDate)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *ObligationService) createRecurringTemplate(ctx context.Context, userID string, input CreateObligationInput) (*CreateObligationResult, error) {
	if input.DueDay == nil {
		return nil, fmt.Errorf("%w: dueDay is required for recurring accounts", domain.ErrValidation)
	}

	account := domain.RecurringAccount{
		ID:              uuid.NewString(),
		UserID:          userID,
		Type:            input.Type,
		Description:     input.Description,
		SupplierID:      input.SupplierID,
		ProductID:       input.ProductID,
		Quantity:        input.Quantity,
		TotalValueCents: input.TotalValueCents,
		DueDay:          *input.DueDay,
		IsActive:        true,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := s.recurring.Create(ctx, &account); err != nil {
		return nil, err
	}

	s.metrics.IncObligationBatch("recurring")
	s.logger.Info("recurring account created",
		zap.String("accountId", account.ID),
		zap.Int("dueDay", account.DueDay),
	)

	return &CreateObligationResult{RecurringAccount: &account}, nil
}

// Overview returns the tenant's payables split into one-off rows,
// installment rows and recurring templates.
func (s *ObligationService) Overview(ctx context.Context, userID string) (*ObligationOverview, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	oneOff, err := s.obligations.ListForUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	installments, err := s.obligations.ListForUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	recurring, err := s.recurring.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ObligationOverview{
		Obligations:  oneOff,
		Installments: installments,
		Recurring:    recurring,
	}, nil
}

// MarkPaid flips the paid flag on the tenant's rows and reports how many
// matched.
func (s *ObligationService) MarkPaid(ctx context.Context, userID string, ids []string) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: at least one obligation id is required", domain.ErrValidation)
	}

	updated, err := s.obligations.MarkPaid(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	if updated == 0 {
		return 0, domain.ErrNotFound
	}
	return updated, nil
}

// nextDueDate resolves a day-of-month to the next occurrence at or after
// now, clamping to short months.
func nextDueDate(now time.Time, dueDay int) time.Time {
	year, month, _ := now.UTC().Date()
	day := dueDay
	if last := daysIn(year, month); day > last {
		day = last
	}
	candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if candidate.Before(now.UTC().Truncate(24 * time.Hour)) {
		next := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		day = dueDay
		if last := daysIn(next.Year(), next.Month()); day > last {
			day = last
		}
		candidate = time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, time.UTC)
	}
	return candidate
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
