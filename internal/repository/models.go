package repository

import (
	"time"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

// PaymentAttemptModel is the persistence model for the payments table.
type PaymentAttemptModel struct {
	ID            string              `gorm:"type:uuid;primaryKey"`
	OrderID       string              `gorm:"type:uuid;not null"`
	UserID        string              `gorm:"type:uuid;not null"`
	AmountCents   int64               `gorm:"not null"`
	Provider      domain.ProviderName `gorm:"type:varchar(20);not null"`
	Status        domain.Status       `gorm:"type:varchar(20);not null"`
	TransactionID *string             `gorm:"type:varchar(255)"`
	ErrorMessage  *string             `gorm:"type:text"`
	RetryCount    int                 `gorm:"not null;default:0"`
	MaxRetries    int                 `gorm:"not null;default:3"`
	LastRetryAt   *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (PaymentAttemptModel) TableName() string {
	return "payments"
}

// OrderModel is the settlement-facing persistence model for orders.
type OrderModel struct {
	ID              string                    `gorm:"type:uuid;primaryKey"`
	UserID          string                    `gorm:"type:uuid;not null"`
	TotalValueCents int64                     `gorm:"not null;default:0"`
	PaymentStatus   domain.OrderPaymentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentMethod   *string                   `gorm:"type:varchar(30)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// ObligationModel is the persistence model for accounts_payable.
type ObligationModel struct {
	ID                    string                `gorm:"type:uuid;primaryKey"`
	UserID                string                `gorm:"type:uuid;not null"`
	Type                  domain.ObligationType `gorm:"type:varchar(20);not null"`
	Description           string                `gorm:"type:text"`
	SupplierID            *string               `gorm:"type:uuid"`
	ProductID             *string               `gorm:"type:uuid"`
	Quantity              *int
	TotalValueCents       int64     `gorm:"not null"`
	InstallmentValueCents int64     `gorm:"not null;default:0"`
	DueDate               time.Time `gorm:"not null"`
	DueDay                *int
	IsPaid                bool    `gorm:"not null;default:false"`
	IsInstallment         bool    `gorm:"not null;default:false"`
	InstallmentNumber     int     `gorm:"not null;default:0"`
	TotalInstallments     int     `gorm:"not null;default:0"`
	ParentInstallmentID   *string `gorm:"type:uuid"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (ObligationModel) TableName() string {
	return "accounts_payable"
}

// RecurringAccountModel is the persistence model for recurring_accounts.
type RecurringAccountModel struct {
	ID              string                `gorm:"type:uuid;primaryKey"`
	UserID          string                `gorm:"type:uuid;not null"`
	Type            domain.ObligationType `gorm:"type:varchar(20);not null"`
	Description     string                `gorm:"type:text"`
	SupplierID      *string               `gorm:"type:uuid"`
	ProductID       *string               `gorm:"type:uuid"`
	Quantity        *int
	TotalValueCents int64 `gorm:"not null"`
	DueDay          int   `gorm:"not null"`
	IsActive        bool  `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (RecurringAccountModel) TableName() string {
	return "recurring_accounts"
}

func paymentModelFromDomain(p *domain.PaymentAttempt) *PaymentAttemptModel {
	if p == nil {
		return nil
	}

	return &PaymentAttemptModel{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		AmountCents:   p.AmountCents,
		Provider:      p.Provider,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		ErrorMessage:  p.ErrorMessage,
		RetryCount:    p.RetryCount,
		MaxRetries:    p.MaxRetries,
		LastRetryAt:   p.LastRetryAt,
		CompletedAt:   p.CompletedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func paymentModelToDomain(m *PaymentAttemptModel) *domain.PaymentAttempt {
	if m == nil {
		return nil
	}

	return &domain.PaymentAttempt{
		ID:            m.ID,
		OrderID:       m.OrderID,
		UserID:        m.UserID,
		AmountCents:   m.AmountCents,
		Provider:      m.Provider,
		Status:        m.Status,
		TransactionID: m.TransactionID,
		ErrorMessage:  m.ErrorMessage,
		RetryCount:    m.RetryCount,
		MaxRetries:    m.MaxRetries,
		LastRetryAt:   m.LastRetryAt,
		CompletedAt:   m.CompletedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func orderModelToDomain(m *OrderModel) *domain.Order {
	if m == nil {
		return nil
	}

	return &domain.Order{
		ID:              m.ID,
		UserID:          m.UserID,
		TotalValueCents: m.TotalValueCents,
		PaymentStatus:   m.PaymentStatus,
		PaymentMethod:   m.PaymentMethod,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func obligationModelFromDomain(o *domain.Obligation) *ObligationModel {
	if o == nil {
		return nil
	}

	return &ObligationModel{
		ID:                    o.ID,
		UserID:                o.UserID,
		Type:                  o.Type,
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
		UpdatedAt:             o.UpdatedAt,
	}
}

func obligationModelToDomain(m *ObligationModel) *domain.Obligation {
	if m == nil {
		return nil
	}

	return &domain.Obligation{
		ID:                    m.ID,
		UserID:                m.UserID,
		Type:                  m.Type,
		Description:           m.Description,
		SupplierID:            m.SupplierID,
		ProductID:             m.ProductID,
		Quantity:              m.Quantity,
		TotalValueCents:       m.TotalValueCents,
		InstallmentValueCents: m.InstallmentValueCents,
		DueDate:               m.DueDate,
		DueDay:                m.DueDay,
		IsPaid:                m.IsPaid,
		IsInstallment:         m.IsInstallment,
		InstallmentNumber:     m.InstallmentNumber,
		TotalInstallments:     m.TotalInstallments,
		ParentInstallmentID:   m.ParentInstallmentID,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func recurringModelFromDomain(r *domain.RecurringAccount) *RecurringAccountModel {
	if r == nil {
		return nil
	}

	return &RecurringAccountModel{
		ID:              r.ID,
		UserID:          r.UserID,
		Type:            r.Type,
		Description:     r.Description,
		SupplierID:      r.SupplierID,
		ProductID:       r.ProductID,
		Quantity:        r.Quantity,
		TotalValueCents: r.TotalValueCents,
		DueDay:          r.DueDay,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func recurringModelToDomain(m *RecurringAccountModel) *domain.RecurringAccount {
	if m == nil {
		return nil
	}

	return &domain.RecurringAccount{
		ID:              m.ID,
		UserID:          m.UserID,
		Type:            m.Type,
		Description:     m.Description,
		SupplierID:      m.SupplierID,
		ProductID:       m.ProductID,
		Quantity:        m.Quantity,
		TotalValueCents: m.TotalValueCents,
		DueDay:          m.DueDay,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
