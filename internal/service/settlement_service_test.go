package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atelier-erp/settlement-engine/internal/domain"
	"github.com/atelier-erp/settlement-engine/internal/lock"
	"github.com/atelier-erp/settlement-engine/internal/notify"
	"github.com/atelier-erp/settlement-engine/internal/provider"
)

func testOrder() *domain.Order {
	return &domain.Order{
		ID:              "order-1",
		UserID:          "user-1",
		TotalValueCents: 15990,
		PaymentStatus:   domain.OrderPaymentPending,
	}
}

func unpaidOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		getForUserFn: func(ctx context.Context, id, userID string) (*domain.Order, error) {
			if id != "order-1" || userID != "user-1" {
				return nil, domain.ErrNotFound
			}
			return testOrder(), nil
		},
	}
}

func newTestService(t *testing.T, orders *fakeOrderRepo, payments *fakePaymentRepo, registry *provider.Registry, publisher notify.Publisher) *SettlementService {
	t.Helper()

	svc, err := NewSettlementService(orders, payments, registry, lock.NewKeyedMutex(), publisher, nil, 3, nil)
	if err != nil {
		t.Fatalf("NewSettlementService() error = %v", err)
	}
	return svc
}

func manualFallback() *stubProvider {
	return &stubProvider{
		name:      domain.ProviderManual,
		available: true,
		initFn: func(ctx context.Context, amountCents int64, orderID string) (*provider.Instructions, error) {
			return &provider.Instructions{
				Provider:                   domain.ProviderManual,
				RequiresManualConfirmation: true,
			}, nil
		},
	}
}

func TestSettlementServiceInitiateManualFallbackStaysPending(t *testing.T) {
	t.Parallel()

	var created *domain.PaymentAttempt
	payments := &fakePaymentRepo{
		createFn: func(ctx context.Context, p *domain.PaymentAttempt) error {
			created = p
			return nil
		},
	}

	unavailable := &stubProvider{name: domain.ProviderInfinityPay, available: false}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, unavailable)

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, &fakeEventPublisher{})

	result, err := svc.Initiate(context.Background(), "user-1", "order-1", 15990)
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	if result.Attempt.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", result.Attempt.Status)
	}
	if result.Attempt.Provider != domain.ProviderManual {
		t.Fatalf("provider = %s, want %s", result.Attempt.Provider, domain.ProviderManual)
	}
	if !result.Instructions.RequiresManualConfirmation {
		t.Fatal("expected manual confirmation instructions")
	}
	if created == nil {
		t.Fatal("expected attempt to be persisted")
	}
	if created.AmountCents != 15990 {
		t.Fatalf("amount = %d, want 15990", created.AmountCents)
	}
}

func TestSettlementServiceInitiateProviderBackedMovesToProcessing(t *testing.T) {
	t.Parallel()

	payments := &fakePaymentRepo{}
	deeplink := &stubProvider{
		name:      domain.ProviderInfinityPay,
		available: true,
		initFn: func(ctx context.Context, amountCents int64, orderID string) (*provider.Instructions, error) {
			return &provider.Instructions{
				Provider:    domain.ProviderInfinityPay,
				DeeplinkURL: "infinitepay://payment?amount=15990&order_id=" + orderID,
			}, nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, deeplink)

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, &fakeEventPublisher{})

	result, err := svc.Initiate(context.Background(), "user-1", "order-1", 15990)
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	if result.Attempt.Status != domain.StatusProcessing {
		t.Fatalf("status = %s, want processing", result.Attempt.Status)
	}
	if result.Attempt.Provider != domain.ProviderInfinityPay {
		t.Fatalf("provider = %s, want %s", result.Attempt.Provider, domain.ProviderInfinityPay)
	}
	if result.Instructions.DeeplinkURL == "" {
		t.Fatal("expected deeplink instructions")
	}
}

func TestSettlementServiceInitiateAmountMismatch(t *testing.T) {
	t.Parallel()

	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil)
	svc := newTestService(t, unpaidOrderRepo(), &fakePaymentRepo{}, registry, &fakeEventPublisher{})

	_, err := svc.Initiate(context.Background(), "user-1", "order-1", 9999)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestSettlementServiceInitiatePaidOrderConflict(t *testing.T) {
	t.Parallel()

	orders := &fakeOrderRepo{
		getForUserFn: func(ctx context.Context, id, userID string) (*domain.Order, error) {
			order := testOrder()
			order.PaymentStatus = domain.OrderPaymentCompleted
			return order, nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil)

	svc := newTestService(t, orders, &fakePaymentRepo{}, registry, &fakeEventPublisher{})

	_, err := svc.Initiate(context.Background(), "user-1", "order-1", 15990)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestSettlementServiceInitiateOpenAttemptConflict(t *testing.T) {
	t.Parallel()

	payments := &fakePaymentRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
			return &domain.PaymentAttempt{
				ID:         "attempt-1",
				OrderID:    orderID,
				UserID:     "user-1",
				Status:     domain.StatusProcessing,
				MaxRetries: 3,
			}, nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil)

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, &fakeEventPublisher{})

	_, err := svc.Initiate(context.Background(), "user-1", "order-1", 15990)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestSettlementServiceInitiateProviderFailureRecordsFailedAttempt(t *testing.T) {
	t.Parallel()

	var created *domain.PaymentAttempt
	payments := &fakePaymentRepo{
		createFn: func(ctx context.Context, p *domain.PaymentAttempt) error {
			created = p
			return nil
		},
	}
	broken := &stubProvider{
		name:      domain.ProviderMercadoPago,
		available: true,
		initFn: func(ctx context.Context, amountCents int64, orderID string) (*provider.Instructions, error) {
			return nil, errors.New("device offline")
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, broken)

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, &fakeEventPublisher{})

	_, err := svc.Initiate(context.Background(), "user-1", "order-1", 15990)
	if err == nil {
		t.Fatal("Initiate() expected error")
	}

	if created == nil {
		t.Fatal("expected failed attempt to be persisted")
	}
	if created.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", created.Status)
	}
	if created.ErrorMessage == nil || *created.ErrorMessage != "device offline" {
		t.Fatalf("errorMessage = %v, want device offline", created.ErrorMessage)
	}
}

func approvedCallbackProvider() *stubProvider {
	return &stubProvider{
		name:      domain.ProviderInfinityPay,
		available: true,
		callbackFn: func(payload []byte) provider.CallbackResult {
			return provider.CallbackResult{
				OrderID:       "order-1",
				Success:       true,
				TransactionID: "tx1",
			}
		},
	}
}

func processingAttempt() *domain.PaymentAttempt {
	return &domain.PaymentAttempt{
		ID:          "attempt-1",
		OrderID:     "order-1",
		UserID:      "user-1",
		AmountCents: 15990,
		Provider:    domain.ProviderInfinityPay,
		Status:      domain.StatusProcessing,
		MaxRetries:  3,
	}
}

func TestSettlementServiceHandleCallbackApprovedCompletesAtomically(t *testing.T) {
	t.Parallel()

	var completedFrom domain.Status
	var completed *domain.PaymentAttempt
	payments := &fakePaymentRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
			return processingAttempt(), nil
		},
		completeFn: func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
			completed = p
			completedFrom = from
			return nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, approvedCallbackProvider())
	publisher := &fakeEventPublisher{}

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, publisher)

	outcome, err := svc.HandleCallback(context.Background(), "infinity_pay", []byte(`{}`))
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if outcome.Duplicate {
		t.Fatal("expected a settling callback, not a duplicate")
	}
	if completed == nil {
		t.Fatal("expected CompleteWithOrder to be called")
	}
	if completedFrom != domain.StatusProcessing {
		t.Fatalf("transition from = %s, want processing", completedFrom)
	}
	if completed.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", completed.Status)
	}
	if completed.TransactionID == nil || *completed.TransactionID != "tx1" {
		t.Fatalf("transactionId = %v, want tx1", completed.TransactionID)
	}
	if completed.CompletedAt == nil {
		t.Fatal("completedAt should be stamped")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(publisher.events))
	}
	if publisher.events[0].Kind != notify.KindPaymentCompleted {
		t.Fatalf("event kind = %s, want %s", publisher.events[0].Kind, notify.KindPaymentCompleted)
	}
	if publisher.events[0].OrderID != "order-1" {
		t.Fatalf("event orderId = %s, want order-1", publisher.events[0].OrderID)
	}
}

func TestSettlementServiceHandleCallbackDuplicateIsNoOp(t *testing.T) {
	t.Parallel()

	txID := "tx1"
	completedAt := time.Now().UTC()
	writes := 0
	payments := &fakePaymentRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
			attempt := processingAttempt()
			attempt.Status = domain.StatusCompleted
			attempt.TransactionID = &txID
			attempt.CompletedAt = &completedAt
			return attempt, nil
		},
		completeFn: func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
			writes++
			return nil
		},
		updateTransitionFn: func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
			writes++
			return nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, approvedCallbackProvider())
	publisher := &fakeEventPublisher{}

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, publisher)

	outcome, err := svc.HandleCallback(context.Background(), "infinity_pay", []byte(`{}`))
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if !outcome.Duplicate {
		t.Fatal("expected duplicate outcome")
	}
	if writes != 0 {
		t.Fatalf("repository writes = %d, want 0", writes)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("published events = %d, want 0", len(publisher.events))
	}
}

func TestSettlementServiceHandleCallbackLateApprovalAfterFailureIsNoOp(t *testing.T) {
	t.Parallel()

	failedMsg := "payment status rejected"
	writes := 0
	payments := &fakePaymentRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
			attempt := processingAttempt()
			attempt.Status = domain.StatusFailed
			attempt.ErrorMessage = &failedMsg
			return attempt, nil
		},
		completeFn: func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
			writes++
			return nil
		},
		updateTransitionFn: func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
			writes++
			return nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, approvedCallbackProvider())
	publisher := &fakeEventPublisher{}

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, publisher)

	outcome, err := svc.HandleCallback(context.Background(), "infinity_pay", []byte(`{}`))
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if !outcome.Duplicate {
		t.Fatal("expected late approval to be absorbed as a no-op")
	}
	if outcome.Attempt.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", outcome.Attempt.Status)
	}
	if outcome.Attempt.TransactionID != nil {
		t.Fatalf("transactionId = %v, want nil", outcome.Attempt.TransactionID)
	}
	if writes != 0 {
		t.Fatalf("repository writes = %d, want 0", writes)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("published events = %d, want 0", len(publisher.events))
	}
}

func TestSettlementServiceHandleCallbackRejectedMarksFailed(t *testing.T) {
	t.Parallel()

	var updated *domain.PaymentAttempt
	payments := &fakePaymentRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
			return processingAttempt(), nil
		},
		updateTransitionFn: func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
			updated = p
			return nil
		},
	}
	rejected := &stubProvider{
		name:      domain.ProviderInfinityPay,
		available: true,
		callbackFn: func(payload []byte) provider.CallbackResult {
			return provider.CallbackResult{
				OrderID:    "order-1",
				Success:    false,
				Diagnostic: "payment status rejected",
			}
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, rejected)
	publisher := &fakeEventPublisher{}

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, publisher)

	outcome, err := svc.HandleCallback(context.Background(), "infinity_pay", []byte(`{}`))
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if outcome.Attempt.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", outcome.Attempt.Status)
	}
	if updated == nil {
		t.Fatal("expected UpdateTransition to be called")
	}
	if updated.ErrorMessage == nil || *updated.ErrorMessage != "payment status rejected" {
		t.Fatalf("errorMessage = %v, want callback diagnostic", updated.ErrorMessage)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(publisher.events))
	}
	if publisher.events[0].Kind != notify.KindPaymentFailed {
		t.Fatalf("event kind = %s, want %s", publisher.events[0].Kind, notify.KindPaymentFailed)
	}
}

func TestSettlementServiceHandleCallbackMalformedPayload(t *testing.T) {
	t.Parallel()

	malformed := &stubProvider{
		name:      domain.ProviderInfinityPay,
		available: true,
		callbackFn: func(payload []byte) provider.CallbackResult {
			return provider.CallbackResult{Diagnostic: "missing order_id"}
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, malformed)

	svc := newTestService(t, unpaidOrderRepo(), &fakePaymentRepo{}, registry, &fakeEventPublisher{})

	_, err := svc.HandleCallback(context.Background(), "infinity_pay", []byte(`not-json`))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestSettlementServiceHandleCallbackUnknownProvider(t *testing.T) {
	t.Parallel()

	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil)

	svc := newTestService(t, unpaidOrderRepo(), &fakePaymentRepo{}, registry, &fakeEventPublisher{})

	_, err := svc.HandleCallback(context.Background(), "paypal", []byte(`{}`))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestSettlementServiceHandleCallbackUnknownOrder(t *testing.T) {
	t.Parallel()

	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, approvedCallbackProvider())

	svc := newTestService(t, unpaidOrderRepo(), &fakePaymentRepo{}, registry, &fakeEventPublisher{})

	_, err := svc.HandleCallback(context.Background(), "infinity_pay", []byte(`{}`))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSettlementServiceHandleCallbackConflictResolvesAsDuplicate(t *testing.T) {
	t.Parallel()

	txID := "tx-other"
	reads := 0
	payments := &fakePaymentRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
			reads++
			attempt := processingAttempt()
			if reads > 1 {
				attempt.Status = domain.StatusCompleted
				attempt.TransactionID = &txID
			}
			return attempt, nil
		},
		completeFn: func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
			return domain.ErrConflict
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, approvedCallbackProvider())
	publisher := &fakeEventPublisher{}

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, publisher)

	outcome, err := svc.HandleCallback(context.Background(), "infinity_pay", []byte(`{}`))
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if !outcome.Duplicate {
		t.Fatal("expected conflict to resolve as duplicate after re-read")
	}
	if len(publisher.events) != 0 {
		t.Fatalf("published events = %d, want 0", len(publisher.events))
	}
}

func TestSettlementServiceRetryReRunsSelection(t *testing.T) {
	t.Parallel()

	failedMsg := "device offline"
	attempt := processingAttempt()
	attempt.Status = domain.StatusFailed
	attempt.ErrorMessage = &failedMsg

	var updated *domain.PaymentAttempt
	payments := &fakePaymentRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
			copied := *attempt
			return &copied, nil
		},
		updateTransitionFn: func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
			if from != domain.StatusFailed {
				t.Fatalf("transition from = %s, want failed", from)
			}
			updated = p
			return nil
		},
	}
	deeplink := &stubProvider{name: domain.ProviderInfinityPay, available: true}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, deeplink)

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, &fakeEventPublisher{})

	result, err := svc.Retry(context.Background(), "user-1", "attempt-1")
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}

	if result.Attempt.Status != domain.StatusProcessing {
		t.Fatalf("status = %s, want processing", result.Attempt.Status)
	}
	if result.Attempt.RetryCount != 1 {
		t.Fatalf("retryCount = %d, want 1", result.Attempt.RetryCount)
	}
	if updated == nil {
		t.Fatal("expected UpdateTransition to be called")
	}
}

func TestSettlementServiceRetryExhaustedBudget(t *testing.T) {
	t.Parallel()

	attempt := processingAttempt()
	attempt.Status = domain.StatusFailed
	attempt.RetryCount = 3

	payments := &fakePaymentRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
			copied := *attempt
			return &copied, nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil)

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, &fakeEventPublisher{})

	_, err := svc.Retry(context.Background(), "user-1", "attempt-1")
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("error = %v, want ErrRetryExhausted", err)
	}
}

func TestSettlementServiceCancelOpenAttempt(t *testing.T) {
	t.Parallel()

	var updated *domain.PaymentAttempt
	payments := &fakePaymentRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
			return processingAttempt(), nil
		},
		updateTransitionFn: func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
			updated = p
			return nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil)

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, &fakeEventPublisher{})

	cancelled, err := svc.Cancel(context.Background(), "user-1", "attempt-1")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if cancelled.Status != domain.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CompletedAt != nil {
		t.Fatal("cancelled attempts must not carry completedAt")
	}
	if updated == nil {
		t.Fatal("expected UpdateTransition to be called")
	}
}

func TestSettlementServiceCancelCompletedAttemptRejected(t *testing.T) {
	t.Parallel()

	payments := &fakePaymentRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
			attempt := processingAttempt()
			attempt.Status = domain.StatusCompleted
			return attempt, nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil)

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, &fakeEventPublisher{})

	_, err := svc.Cancel(context.Background(), "user-1", "attempt-1")
	if !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("error = %v, want ErrIllegalTransition", err)
	}
}

func TestSettlementServiceGetForeignTenantLooksMissing(t *testing.T) {
	t.Parallel()

	payments := &fakePaymentRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
			return processingAttempt(), nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil)

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, &fakeEventPublisher{})

	_, err := svc.Get(context.Background(), "user-2", "attempt-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSettlementServicePublishFailureDoesNotFailCallback(t *testing.T) {
	t.Parallel()

	payments := &fakePaymentRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
			return processingAttempt(), nil
		},
	}
	registry := provider.NewRegistry(manualFallback(), 100*time.Millisecond, nil, approvedCallbackProvider())
	publisher := &fakeEventPublisher{
		publishFn: func(ctx context.Context, queue string, event notify.Event) error {
			return errors.New("broker unavailable")
		},
	}

	svc := newTestService(t, unpaidOrderRepo(), payments, registry, publisher)

	outcome, err := svc.HandleCallback(context.Background(), "infinity_pay", []byte(`{}`))
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if outcome.Attempt.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", outcome.Attempt.Status)
	}
}
