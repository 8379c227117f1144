package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

// RecurringRepository persists recurring account templates. Monthly
// expansion belongs to an external scheduler, not this service.
type RecurringRepository interface {
	Create(ctx context.Context, r *domain.RecurringAccount) error
	ListForUser(ctx context.Context, userID string) ([]domain.RecurringAccount, error)
}

type GormRecurringRepo struct {
	db *gorm.DB
}

func NewGormRecurringRepo(db *gorm.DB) *GormRecurringRepo {
	return &GormRecurringRepo{db: db}
}

func (r *GormRecurringRepo) Create(ctx context.Context, account *domain.RecurringAccount) error {
	model := recurringModelFromDomain(account)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if account != nil {
		*account = *recurringModelToDomain(model)
	}
	return nil
}

func (r *GormRecurringRepo) ListForUser(ctx context.Context, userID string) ([]domain.RecurringAccount, error) {
	var models []RecurringAccountModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("due_day ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.RecurringAccount, 0, len(models))
	for i := range models {
		accounts = append(accounts, *recurringModelToDomain(&models[i]))
	}
	return accounts, nil
}
