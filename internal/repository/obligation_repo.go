package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

// ObligationRepository persists accounts-payable rows. CreateBatch is
// all-or-nothing: a failure on any row leaves none of the batch behind.
type ObligationRepository interface {
	CreateBatch(ctx context.Context, obligations []*domain.Obligation) error
	ListForUser(ctx context.Context, userID string, installmentsOnly bool) ([]domain.Obligation, error)
	MarkPaid(ctx context.Context, userID string, ids []string) (int64, error)
}

type GormObligationRepo struct {
	db *gorm.DB
}

func NewGormObligationRepo(db *gorm.DB) *GormObligationRepo {
	return &GormObligationRepo{db: db}
}

func (r *GormObligationRepo) CreateBatch(ctx context.Context, obligations []*domain.Obligation) error {
	models := make([]ObligationModel, 0, len(obligations))
	modelIndexes := make([]int, 0, len(obligations))
	for i, o := range obligations {
		model := obligationModelFromDomain(o)
		if model != nil {
			models = append(models, *model)
			modelIndexes = append(modelIndexes, i)
		}
	}

	if len(models) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
	if err != nil {
		return err
	}

	for i := range models {
		idx := modelIndexes[i]
		if idx < len(obligations) && obligations[idx] != nil {
			*obligations[idx] = *obligationModelToDomain(&models[i])
		}
	}

	return nil
}

func (r *GormObligationRepo) ListForUser(ctx context.Context, userID string, installmentsOnly bool) ([]domain.Obligation, error) {
	var models []ObligationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_installment = ?", userID, installmentsOnly).
		Order("due_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	obligations := make([]domain.Obligation, 0, len(models))
	for i := range models {
		obligations = append(obligations, *obligationModelToDomain(&models[i]))
	}
	return obligations, nil
}

// MarkPaid flips is_paid for the caller's rows and reports how many
// matched. Obligations are never regenerated or deleted once created.
func (r *GormObligationRepo) MarkPaid(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Model(&ObligationModel{}).
		Where("id IN ? AND user_id = ?", ids, userID).
		Update("is_paid", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
