package domain

import "time"

// OrderPaymentStatus mirrors the owning order's settlement view. The rest of
// the order record belongs to the excluded back-office CRUD surface.
type OrderPaymentStatus string

const (
	OrderPaymentPending   OrderPaymentStatus = "pending"
	OrderPaymentCompleted OrderPaymentStatus = "completed"
)

// Order is the settlement-facing slice of a sale.
type Order struct {
	ID              string
	UserID          string
	TotalValueCents int64
	PaymentStatus   OrderPaymentStatus
	PaymentMethod   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == OrderPaymentCompleted
}
