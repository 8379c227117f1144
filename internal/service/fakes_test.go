package service

import (
	"context"
	"time"

	"github.com/atelier-erp/settlement-engine/internal/domain"
	"github.com/atelier-erp/settlement-engine/internal/notify"
	"github.com/atelier-erp/settlement-engine/internal/provider"
)

type fakeOrderRepo struct {
	getForUserFn func(ctx context.Context, id, userID string) (*domain.Order, error)
}

func (f *fakeOrderRepo) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	return f.getForUserFn(ctx, id, userID)
}

type fakePaymentRepo struct {
	createFn           func(ctx context.Context, p *domain.PaymentAttempt) error
	getByIDFn          func(ctx context.Context, id string) (*domain.PaymentAttempt, error)
	getByOrderIDFn     func(ctx context.Context, orderID string) (*domain.PaymentAttempt, error)
	updateTransitionFn func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error
	completeFn         func(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error
	listStaleFn        func(ctx context.Context, olderThan time.Time, limit int) ([]domain.PaymentAttempt, error)
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *domain.PaymentAttempt) error {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return nil
}

func (f *fakePaymentRepo) GetByID(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakePaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
	if f.getByOrderIDFn != nil {
		return f.getByOrderIDFn(ctx, orderID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakePaymentRepo) UpdateTransition(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
	if f.updateTransitionFn != nil {
		return f.updateTransitionFn(ctx, p, from)
	}
	return nil
}

func (f *fakePaymentRepo) CompleteWithOrder(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
	if f.completeFn != nil {
		return f.completeFn(ctx, p, from)
	}
	return nil
}

func (f *fakePaymentRepo) ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]domain.PaymentAttempt, error) {
	if f.listStaleFn != nil {
		return f.listStaleFn(ctx, olderThan, limit)
	}
	return nil, nil
}

type fakeEventPublisher struct {
	publishFn func(ctx context.Context, queue string, event notify.Event) error
	events    []notify.Event
}

func (f *fakeEventPublisher) Publish(ctx context.Context, queue string, event notify.Event) error {
	f.events = append(f.events, event)
	if f.publishFn != nil {
		return f.publishFn(ctx, queue, event)
	}
	return nil
}

func (f *fakeEventPublisher) Close() error { return nil }

type stubProvider struct {
	name       domain.ProviderName
	available  bool
	initFn     func(ctx context.Context, amountCents int64, orderID string) (*provider.Instructions, error)
	callbackFn func(payload []byte) provider.CallbackResult
}

func (s *stubProvider) Name() domain.ProviderName { return s.name }

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return s.available }

func (s *stubProvider) InitializePayment(ctx context.Context, amountCents int64, orderID string) (*provider.Instructions, error) {
	if s.initFn != nil {
		return s.initFn(ctx, amountCents, orderID)
	}
	return &provider.Instructions{Provider: s.name}, nil
}

func (s *stubProvider) HandleCallback(payload []byte) provider.CallbackResult {
	if s.callbackFn != nil {
		return s.callbackFn(payload)
	}
	return provider.CallbackResult{}
}

type fakeObligationRepo struct {
	createBatchFn func(ctx context.Context, obligations []*domain.Obligation) error
	listForUserFn func(ctx context.Context, userID string, installmentsOnly bool) ([]domain.Obligation, error)
	markPaidFn    func(ctx context.Context, userID string, ids []string) (int64, error)
}

func (f *fakeObligationRepo) CreateBatch(ctx context.Context, obligations []*domain.Obligation) error {
	if f.createBatchFn != nil {
		return f.createBatchFn(ctx, obligations)
	}
	return nil
}

func (f *fakeObligationRepo) ListForUser(ctx context.Context, userID string, installmentsOnly bool) ([]domain.Obligation, error) {
	if f.listForUserFn != nil {
		return f.listForUserFn(ctx, userID, installmentsOnly)
	}
	return nil, nil
}

func (f *fakeObligationRepo) MarkPaid(ctx context.Context, userID string, ids []string) (int64, error) {
	if f.markPaidFn != nil {
		return f.markPaidFn(ctx, userID, ids)
	}
	return 0, nil
}

type fakeRecurringRepo struct {
	createFn      func(ctx context.Context, r *domain.RecurringAccount) error
	listForUserFn func(ctx context.Context, userID string) ([]domain.RecurringAccount, error)
}

func (f *fakeRecurringRepo) Create(ctx context.Context, r *domain.RecurringAccount) error {
	if f.createFn != nil {
		return f.createFn(ctx, r)
	}
	return nil
}

func (f *fakeRecurringRepo) ListForUser(ctx context.Context, userID string) ([]domain.RecurringAccount, error) {
	if f.listForUserFn != nil {
		return f.listForUserFn(ctx, userID)
	}
	return nil, nil
}
