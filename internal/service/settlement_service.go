package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atelier-erp/settlement-engine/internal/domain"
	"github.com/atelier-erp/settlement-engine/internal/lock"
	"github.com/atelier-erp/settlement-engine/internal/notify"
	"github.com/atelier-erp/settlement-engine/internal/observability"
	"github.com/atelier-erp/settlement-engine/internal/provider"
	"github.com/atelier-erp/settlement-engine/internal/repository"
)

// SettlementService orchestrates the payment attempt lifecycle: provider
// selection, initiation, callback settlement, manual retries and
// cancellation. Per-order serialization is delegated to the Locker so
// concurrent callbacks for one order never interleave.
type SettlementService struct {
	orders     repository.OrderRepository
	payments   repository.PaymentRepository
	registry   *provider.Registry
	locker     lock.Locker
	publisher  notify.Publisher
	metrics    *observability.Metrics
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// InitiateResult pairs the persisted attempt with the provider-specific
// instructions the client needs to carry the payment forward.
type InitiateResult struct {
	Attempt      *domain.PaymentAttempt
	Instructions *provider.Instructions
}

// CallbackOutcome reports how an inbound provider callback was settled.
// Duplicate means the attempt was already terminal and nothing changed.
type CallbackOutcome struct {
	Attempt   *domain.PaymentAttempt
	Duplicate bool
}

func NewSettlementService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	registry *provider.Registry,
	locker lock.Locker,
	publisher notify.Publisher,
	metrics *observability.Metrics,
	maxRetries int,
	logger *zap.Logger,
) (*SettlementService, error) {
	if orders == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment repository is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SettlementService{
		orders:     orders,
		payments:   payments,
		registry:   registry,
		locker:     locker,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Initiate selects the first available provider, asks it for payment
// instructions and persists a new attempt for the order. A non-zero
// amountCents must match the order total; zero defers to it.
func (s *SettlementService) Initiate(ctx context.Context, userID, orderID string, amountCents int64) (*InitiateResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	order, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return nil, fmt.Errorf("%w: order %s is already paid", domain.ErrConflict, orderID)
	}
	if amountCents > 0 && amountCents != order.TotalValueCents {
		return nil, fmt.Errorf("%w: amount %d does not match order total %d",
			domain.ErrValidation, amountCents, order.TotalValueCents)
	}

	release, err := s.locker.Acquire(ctx, orderLockKey(orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire order lock: %w", err)
	}
	defer release()

	if existing, err := s.payments.GetByOrderID(ctx, orderID); err == nil {
		if !existing.IsTerminal() {
			return nil, fmt.Errorf("%w: payment attempt %s is still open for order %s",
				domain.ErrConflict, existing.ID, orderID)
		}
		if existing.IsSettled() && existing.Status == domain.StatusCompleted {
			return nil, fmt.Errorf("%w: order %s is already paid", domain.ErrConflict, orderID)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	selected := s.registry.Select(ctx)

	attempt := &domain.PaymentAttempt{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		UserID:      userID,
		AmountCents: order.TotalValueCents,
		Provider:    selected.Name(),
		Status:      domain.StatusPending,
		MaxRetries:  s.maxRetries,
	}
	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	start := s.now()
	instructions, initErr := selected.InitializePayment(ctx, attempt.AmountCents, order.ID)
	s.metrics.ObserveProviderInitDuration(selected.Name().String(), s.now().Sub(start))

	if initErr != nil {
		if failErr := attempt.Fail(initErr.Error(), s.now()); failErr != nil {
			return nil, failErr
		}
		if createErr := s.payments.Create(ctx, attempt); createErr != nil {
			return nil, createErr
		}
		s.logger.Error("payment initiation failed",
			zap.String("orderId", order.ID),
			zap.String("provider", selected.Name().String()),
			zap.Error(initErr),
		)
		return nil, fmt.Errorf("payment initiation via %s failed: %w", selected.Name(), initErr)
	}

	// Manual settlements stay pending until an operator confirms; provider
	// backed ones move to processing once instructions exist.
	if !instructions.RequiresManualConfirmation {
		if err := attempt.MarkProcessing(); err != nil {
			return nil, err
		}
	}

	if err := s.payments.Create(ctx, attempt); err != nil {
		return nil, err
	}

	s.metrics.IncPaymentInitiated(selected.Name().String())
	s.logger.Info("payment attempt initiated",
		zap.String("attemptId", attempt.ID),
		zap.String("orderId", order.ID),
		zap.String("provider", selected.Name().String()),
		zap.String("status", attempt.Status.String()),
	)

	return &InitiateResult{Attempt: attempt, Instructions: instructions}, nil
}

// HandleCallback settles a provider callback. Malformed payloads and
// unknown providers surface as ErrValidation; everything else resolves to
// a state change, a duplicate no-op, or ErrNotFound for unknown orders.
func (s *SettlementService) HandleCallback(ctx context.Context, providerName string, payload []byte) (*CallbackOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	name, err := domain.ParseProviderFromString(providerName)
	if err != nil {
		return nil, err
	}
	prov, ok := s.registry.ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: provider %q is not registered", domain.ErrValidation, providerName)
	}

	result := prov.HandleCallback(payload)
	if result.Malformed() {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, result.Diagnostic)
	}

	release, err := s.locker.Acquire(ctx, orderLockKey(result.OrderID))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire order lock: %w", err)
	}
	defer release()

	attempt, err := s.payments.GetByOrderID(ctx, result.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.IncPaymentCallback(name.String(), "unknown")
		}
		return nil, err
	}

	outcome, err := s.applyCallback(ctx, attempt, name, result)
	if err != nil {
		return nil, err
	}

	if outcome.Duplicate {
		s.metrics.IncPaymentCallback(name.String(), "duplicate")
		s.logger.Info("duplicate provider callback ignored",
			zap.String("attemptId", attempt.ID),
			zap.String("orderId", result.OrderID),
			zap.String("provider", name.String()),
		)
		return outcome, nil
	}

	if result.Success {
		s.metrics.IncPaymentCallback(name.String(), "completed")
	} else {
		s.metrics.IncPaymentCallback(name.String(), "failed")
	}

	s.publishSettled(ctx, outcome.Attempt)

	return outcome, nil
}

func (s *SettlementService) applyCallback(
	ctx context.Context,
	attempt *domain.PaymentAttempt,
	name domain.ProviderName,
	result provider.CallbackResult,
) (*CallbackOutcome, error) {
	if attempt.IsSettled() {
		return &CallbackOutcome{Attempt: attempt, Duplicate: true}, nil
	}
	if !result.Success && attempt.Status == domain.StatusFailed {
		return &CallbackOutcome{Attempt: attempt, Duplicate: true}, nil
	}

	err := s.persistCallback(ctx, attempt, result)
	if errors.Is(err, domain.ErrIllegalTransition) {
		return s.absorbOutOfOrder(attempt, name, err), nil
	}
	if errors.Is(err, domain.ErrConflict) {
		// Lost a race against a concurrent writer. Re-read once; a now
		// terminal attempt means the callback was effectively a duplicate.
		fresh, readErr := s.payments.GetByOrderID(ctx, attempt.OrderID)
		if readErr != nil {
			return nil, readErr
		}
		if fresh.IsSettled() || (!result.Success && fresh.Status == domain.StatusFailed) {
			return &CallbackOutcome{Attempt: fresh, Duplicate: true}, nil
		}
		if retryErr := s.persistCallback(ctx, fresh, result); retryErr != nil {
			if errors.Is(retryErr, domain.ErrIllegalTransition) {
				return s.absorbOutOfOrder(fresh, name, retryErr), nil
			}
			return nil, retryErr
		}
		return &CallbackOutcome{Attempt: fresh}, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment callback settled",
		zap.String("attemptId", attempt.ID),
		zap.String("orderId", attempt.OrderID),
		zap.String("provider", name.String()),
		zap.String("status", attempt.Status.String()),
	)

	return &CallbackOutcome{Attempt: attempt}, nil
}

// absorbOutOfOrder acknowledges a callback whose transition the state
// machine rejects, such as a late approval landing after a rejection
// already moved the attempt to failed. The attempt is left untouched and
// the provider sees a no-op so it stops redelivering.
func (s *SettlementService) absorbOutOfOrder(attempt *domain.PaymentAttempt, name domain.ProviderName, cause error) *CallbackOutcome {
	s.logger.Warn("out-of-order provider callback ignored",
		zap.String("attemptId", attempt.ID),
		zap.String("orderId", attempt.OrderID),
		zap.String("provider", name.String()),
		zap.String("status", attempt.Status.String()),
		zap.Error(cause),
	)
	return &CallbackOutcome{Attempt: attempt, Duplicate: true}
}

func (s *SettlementService) persistCallback(ctx context.Context, attempt *domain.PaymentAttempt, result provider.CallbackResult) error {
	from := attempt.Status

	if result.Success {
		if err := attempt.Complete(result.TransactionID, s.now()); err != nil {
			return err
		}
		return s.payments.CompleteWithOrder(ctx, attempt, from)
	}

	message := result.Diagnostic
	if message == "" {
		message = "payment rejected by provider"
	}
	if err := attempt.Fail(message, s.now()); err != nil {
		return err
	}
	return s.payments.UpdateTransition(ctx, attempt, from)
}

// Retry re-runs a failed attempt through provider selection. The retry
// budget is enforced by the domain; exhausted attempts surface
// ErrRetryExhausted.
func (s *SettlementService) Retry(ctx context.Context, userID, attemptID string) (*InitiateResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	attempt, err := s.getOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, orderLockKey(attempt.OrderID))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire order lock: %w", err)
	}
	defer release()

	// Re-read under the lock; a callback may have settled the attempt
	// between the ownership check and here.
	attempt, err = s.payments.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	from := attempt.Status
	if err := attempt.Retry(s.now()); err != nil {
		return nil, err
	}

	selected := s.registry.Select(ctx)
	attempt.Provider = selected.Name()

	instructions, initErr := selected.InitializePayment(ctx, attempt.AmountCents, attempt.OrderID)
	if initErr != nil {
		if failErr := attempt.Fail(initErr.Error(), s.now()); failErr != nil {
			return nil, failErr
		}
		if updateErr := s.payments.UpdateTransition(ctx, attempt, from); updateErr != nil {
			return nil, updateErr
		}
		return nil, fmt.Errorf("payment retry via %s failed: %w", selected.Name(), initErr)
	}

	if err := s.payments.UpdateTransition(ctx, attempt, from); err != nil {
		return nil, err
	}

	s.metrics.IncPaymentRetry(selected.Name().String())
	s.logger.Info("payment attempt retried",
		zap.String("attemptId", attempt.ID),
		zap.String("orderId", attempt.OrderID),
		zap.String("provider", selected.Name().String()),
		zap.Int("retryCount", attempt.RetryCount),
	)

	return &InitiateResult{Attempt: attempt, Instructions: instructions}, nil
}

// Cancel abandons an open attempt. Terminal attempts cannot be cancelled.
func (s *SettlementService) Cancel(ctx context.Context, userID, attemptID string) (*domain.PaymentAttempt, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	attempt, err := s.getOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, orderLockKey(attempt.OrderID))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire order lock: %w", err)
	}
	defer release()

	attempt, err = s.payments.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	from := attempt.Status
	if err := attempt.Cancel(); err != nil {
		return nil, err
	}
	if err := s.payments.UpdateTransition(ctx, attempt, from); err != nil {
		return nil, err
	}

	s.logger.Info("payment attempt cancelled",
		zap.String("attemptId", attempt.ID),
		zap.String("orderId", attempt.OrderID),
	)

	return attempt, nil
}

// Get returns an attempt scoped to its owner.
func (s *SettlementService) Get(ctx context.Context, userID, attemptID string) (*domain.PaymentAttempt, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.getOwned(ctx, userID, attemptID)
}

func (s *SettlementService) getOwned(ctx context.Context, userID, attemptID string) (*domain.PaymentAttempt, error) {
	attempt, err := s.payments.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	// A foreign tenant's attempt looks exactly like a missing one.
	if attempt.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return attempt, nil
}

// publishSettled emits the post-commit settlement event. Publishing is
// best effort: the state change already committed, so broker trouble is
// logged and never rolls the payment back.
func (s *SettlementService) publishSettled(ctx context.Context, attempt *domain.PaymentAttempt) {
	if s.publisher == nil {
		return
	}

	kind := notify.KindPaymentFailed
	message := ""
	if attempt.Status == domain.StatusCompleted {
		kind = notify.KindPaymentCompleted
	} else if attempt.ErrorMessage != nil {
		message = *attempt.ErrorMessage
	}

	event := notify.Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		UserID:      attempt.UserID,
		OrderID:     attempt.OrderID,
		AttemptID:   attempt.ID,
		Provider:    attempt.Provider.String(),
		AmountCents: attempt.AmountCents,
		Message:     message,
		OccurredAt:  s.now(),
	}

	if err := s.publisher.Publish(ctx, notify.EventQueue, event); err != nil {
		s.logger.Error("failed to publish settlement event",
			zap.String("attemptId", attempt.ID),
			zap.String("orderId", attempt.OrderID),
			zap.Error(err),
		)
	}
}

func orderLockKey(orderID string) string {
	return "payment:order:" + orderID
}
