package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

// OrderRepository exposes the settlement-facing slice of orders. All reads
// are tenant-filtered; a foreign tenant's order is indistinguishable from a
// missing one.
type OrderRepository interface {
	GetForUser(ctx context.Context, id, userID string) (*domain.Order, error)
}

type GormOrderRepo struct {
	db *gorm.DB
}

func NewGormOrderRepo(db *gorm.DB) *GormOrderRepo {
	return &GormOrderRepo{db: db}
}

func (r *GormOrderRepo) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return orderModelToDomain(&model), nil
}
