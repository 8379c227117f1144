package domain

import (
	"fmt"
	"strings"
	"time"
)

// ObligationType classifies a scheduled money-out record.
type ObligationType string

const (
	ObligationSupplier    ObligationType = "supplier"
	ObligationRent        ObligationType = "rent"
	ObligationOther       ObligationType = "other"
	ObligationInstallment ObligationType = "installment"
)

func (t ObligationType) String() string { return string(t) }

func (t ObligationType) IsValid() bool {
	switch t {
	case ObligationSupplier, ObligationRent, ObligationOther, ObligationInstallment:
		return true
	}
	return false
}

func ParseObligationTypeFromString(s string) (ObligationType, error) {
	t := ObligationType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid obligation type %q", ErrValidation, s)
	}
	return t, nil
}

// Obligation is a scheduled payable: one-off, or one installment of a group.
// Rows of an installment group share ParentInstallmentID (the first row is
// the group anchor and carries a nil parent). Values are minor currency
// units; the sum of InstallmentValueCents across a group equals the
// originally requested total exactly.
type Obligation struct {
	ID                    string
	UserID                string
	Type                  ObligationType
	Description           string
	SupplierID            *string
	ProductID             *string
	Quantity              *int
	TotalValueCents       int64
	InstallmentValueCents int64
	DueDate               time.Time
	DueDay                *int
	IsPaid                bool
	IsInstallment         bool
	InstallmentNumber     int
	TotalInstallments     int
	ParentInstallmentID   *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (o *Obligation) Validate() error {
	if strings.TrimSpace(o.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if !o.Type.IsValid() {
		return fmt.Errorf("%w: invalid obligation type %q", ErrValidation, o.Type)
	}
	if o.TotalValueCents <= 0 {
		return fmt.Errorf("%w: totalValue must be positive", ErrValidation)
	}
	if o.Type == ObligationSupplier {
		if o.SupplierID == nil || strings.TrimSpace(*o.SupplierID) == "" {
			return fmt.Errorf("%w: supplier is required for supplier obligations", ErrValidation)
		}
	} else if strings.TrimSpace(o.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if o.IsInstallment {
		if o.TotalInstallments < 2 {
			return fmt.Errorf("%w: totalInstallments must be >= 2", ErrValidation)
		}
		if o.InstallmentNumber < 1 || o.InstallmentNumber > o.TotalInstallments {
			return fmt.Errorf("%w: installmentNumber out of range", ErrValidation)
		}
		if o.InstallmentValueCents <= 0 {
			return fmt.Errorf("%w: installmentValue must be positive", ErrValidation)
		}
	}
	if o.DueDay != nil && (*o.DueDay < 1 || *o.DueDay > 31) {
		return fmt.Errorf("%w: dueDay must be between 1 and 31", ErrValidation)
	}
	return nil
}

// RecurringAccount is a monthly obligation template. Due dates are
// re-derived each month by an external scheduler, not expanded eagerly.
type RecurringAccount struct {
	ID              string
	UserID          string
	Type            ObligationType
	Description     string
	SupplierID      *string
	ProductID       *string
	Quantity        *int
	TotalValueCents int64
	DueDay          int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r *RecurringAccount) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if !r.Type.IsValid() || r.Type == ObligationInstallment {
		return fmt.Errorf("%w: invalid recurring account type %q", ErrValidation, r.Type)
	}
	if r.TotalValueCents <= 0 {
		return fmt.Errorf("%w: totalValue must be positive", ErrValidation)
	}
	if r.DueDay < 1 || r.DueDay > 31 {
		return fmt.Errorf("%w: dueDay must be between 1 and 31", ErrValidation)
	}
	if r.Type == ObligationSupplier {
		if r.SupplierID == nil || strings.TrimSpace(*r.SupplierID) == "" {
			return fmt.Errorf("%w: supplier is required for supplier accounts", ErrValidation)
		}
	} else if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	return nil
}

// SplitInstallments divides totalCents into n parts that sum exactly to
// totalCents, folding the rounding remainder into the last part.
func SplitInstallments(totalCents int64, n int) []int64 {
	if n < 1 {
		return nil
	}
	base := totalCents / int64(n)
	parts := make([]int64, n)
	for i := range parts {
		parts[i] = base
	}
	parts[n-1] = totalCents - base*int64(n-1)
	return parts
}

// AddMonthsClamped advances t by the given number of calendar months,
// clamping to the last day of the target month (Jan 31 + 1 -> Feb 28).
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	shifted := first.AddDate(0, months, 0)
	last := daysInMonth(shifted.Year(), shifted.Month())
	if day > last {
		day = last
	}
	return time.Date(shifted.Year(), shifted.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
