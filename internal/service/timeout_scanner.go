package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-erp/settlement-engine/internal/domain"
	"github.com/atelier-erp/settlement-engine/internal/lock"
	"github.com/atelier-erp/settlement-engine/internal/observability"
	"github.com/atelier-erp/settlement-engine/internal/repository"
)

const (
	defaultTimeoutScanInterval = time.Minute
	defaultProcessingDeadline  = 30 * time.Minute
	defaultTimeoutScanLimit    = 100
)

// TimeoutScanner fails payment attempts stuck in processing past the
// confirmation deadline, so an order whose provider never calls back does
// not stay locked forever.
type TimeoutScanner struct {
	payments repository.PaymentRepository
	locker   lock.Locker
	metrics  *observability.Metrics
	logger   *zap.Logger
	interval time.Duration
	deadline time.Duration
	limit    int
	now      func() time.Time
}

func NewTimeoutScanner(
	payments repository.PaymentRepository,
	locker lock.Locker,
	interval time.Duration,
	deadline time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*TimeoutScanner, error) {
	if payments == nil {
		return nil, fmt.Errorf("payment repository is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if interval <= 0 {
		interval = defaultTimeoutScanInterval
	}
	if deadline <= 0 {
		deadline = defaultProcessingDeadline
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TimeoutScanner{
		payments: payments,
		locker:   locker,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		deadline: deadline,
		limit:    defaultTimeoutScanLimit,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *TimeoutScanner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial scan so attempts already past the deadline do not
	// wait for the first ticker edge.
	if err := s.scanStale(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("timeout scanner initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scanStale(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("timeout scanner scan failed", zap.Error(err))
			}
		}
	}
}

func (s *TimeoutScanner) scanStale(ctx context.Context) error {
	cutoff := s.now().Add(-s.deadline)
	stale, err := s.payments.ListStaleProcessing(ctx, cutoff, s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch stale attempts: %w", err)
	}

	for i := range stale {
		attempt := stale[i]
		if err := s.failStale(ctx, &attempt); err != nil {
			s.logger.Error("failed to time out stale attempt",
				zap.String("attemptId", attempt.ID),
				zap.String("orderId", attempt.OrderID),
				zap.Error(err),
			)
			continue
		}
	}

	return nil
}

func (s *TimeoutScanner) failStale(ctx context.Context, attempt *domain.PaymentAttempt) error {
	release, err := s.locker.Acquire(ctx, orderLockKey(attempt.OrderID))
	if err != nil {
		return err
	}
	defer release()

	// Re-read under the lock; a late callback may have settled the
	// attempt since the scan listed it.
	fresh, err := s.payments.GetByID(ctx, attempt.ID)
	if err != nil {
		return err
	}
	if fresh.Status != domain.StatusProcessing {
		return nil
	}

	from := fresh.Status
	if err := fresh.Fail("payment confirmation timed out", s.now()); err != nil {
		return err
	}
	if err := s.payments.UpdateTransition(ctx, fresh, from); err != nil {
		return err
	}

	s.metrics.IncPaymentTimedOut()
	s.logger.Warn("payment attempt timed out",
		zap.String("attemptId", fresh.ID),
		zap.String("orderId", fresh.OrderID),
		zap.String("provider", fresh.Provider.String()),
	)

	return nil
}
