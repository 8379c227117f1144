package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

// PaymentRepository persists payment attempts. Transitions use guarded
// updates (WHERE status = <expected>) so a stale read surfaces as
// domain.ErrConflict instead of silently overwriting a concurrent change.
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.PaymentAttempt) error
	GetByID(ctx context.Context, id string) (*domain.PaymentAttempt, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error)
	UpdateTransition(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error
	CompleteWithOrder(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error
	ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]domain.PaymentAttempt, error)
}

type GormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) *GormPaymentRepo {
	return &GormPaymentRepo{db: db}
}

func (r *GormPaymentRepo) Create(ctx context.Context, p *domain.PaymentAttempt) error {
	model := paymentModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if p != nil {
		*p = *paymentModelToDomain(model)
	}
	return nil
}

func (r *GormPaymentRepo) GetByID(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
	var model PaymentAttemptModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return paymentModelToDomain(&model), nil
}

// GetByOrderID returns the most recent attempt for an order; callbacks
// correlate on the order reference, not the attempt id.
func (r *GormPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
	var model PaymentAttemptModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return paymentModelToDomain(&model), nil
}

func (r *GormPaymentRepo) UpdateTransition(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
	return r.applyTransition(r.db.WithContext(ctx), p, from)
}

// CompleteWithOrder commits the attempt's completed transition and the
// owning order's paid flag as one transaction; neither is observable
// without the other.
func (r *GormPaymentRepo) CompleteWithOrder(ctx context.Context, p *domain.PaymentAttempt, from domain.Status) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.applyTransition(tx, p, from); err != nil {
			return err
		}

		method := p.Provider.String()
		result := tx.Model(&OrderModel{}).
			Where("id = ? AND user_id = ?", p.OrderID, p.UserID).
			Updates(map[string]any{
				"payment_status": domain.OrderPaymentCompleted,
				"payment_method": method,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *GormPaymentRepo) ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]domain.PaymentAttempt, error) {
	var models []PaymentAttemptModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", domain.StatusProcessing, olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	attempts := make([]domain.PaymentAttempt, 0, len(models))
	for i := range models {
		attempts = append(attempts, *paymentModelToDomain(&models[i]))
	}
	return attempts, nil
}

func (r *GormPaymentRepo) applyTransition(tx *gorm.DB, p *domain.PaymentAttempt, from domain.Status) error {
	if p == nil {
		return domain.ErrValidation
	}

	result := tx.Model(&PaymentAttemptModel{}).
		Where("id = ? AND status = ?", p.ID, from).
		Updates(map[string]any{
			"status":         p.Status,
			"transaction_id": p.TransactionID,
			"error_message":  p.ErrorMessage,
			"retry_count":    p.RetryCount,
			"last_retry_at":  p.LastRetryAt,
			"completed_at":   p.CompletedAt,
			"provider":       p.Provider,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}
