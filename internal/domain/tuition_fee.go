package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTuitionFeeNotFound      = errors.New("tuition fee not found")
	ErrTuitionFeeAlreadyExists = errors.New("tuition fee already exists for this student and period")
	ErrFeeAlreadySettled       = errors.New("tuition fee is already fully settled")
)

// TuitionFee is the monthly billing ledger row for one student in one class.
// Amount is always derived from attendance and pricing, never accepted from a
// caller. At most one row exists per (studentID, period).
type TuitionFee struct {
	ID              uuid.UUID       `json:"id"`
	StudentID       uuid.UUID       `json:"studentId"`
	ClassID         uuid.UUID       `json:"classId"`
	Period          time.Time       `json:"period"` // first day of the billing month
	Amount          decimal.Decimal `json:"amount"`
	DiscountPercent int32           `json:"discountPercent"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Settle applies a payment against the outstanding balance. A payment that
// meets or exceeds the remaining balance settles the fee in full; the excess
// is discarded, not credited. The caller validates positivity beforehand.
func (f *TuitionFee) Settle(paid decimal.Decimal) {
	if paid.GreaterThanOrEqual(f.RemainingAmount) {
		f.RemainingAmount = decimal.Zero
		f.PaidAmount = f.Amount
		return
	}
	f.RemainingAmount = f.RemainingAmount.Sub(paid)
	f.PaidAmount = f.PaidAmount.Add(paid)
}

// Reprice replaces the derived amount after an attendance correction or
// discount change, preserving what has already been paid. Remaining is
// clamped at zero if payments exceed the corrected amount.
func (f *TuitionFee) Reprice(amount decimal.Decimal, discountPercent int32) {
	f.Amount = amount
	f.DiscountPercent = discountPercent
	f.RemainingAmount = amount.Sub(f.PaidAmount)
	if f.RemainingAmount.IsNegative() {
		f.RemainingAmount = decimal.Zero
	}
}

// Status derives the settlement status of the fee.
func (f *TuitionFee) Status() SettlementStatus {
	return DeriveSettlementStatus(f.Amount, f.RemainingAmount)
}

// Settled reports whether nothing remains to be paid.
func (f *TuitionFee) Settled() bool {
	return f.RemainingAmount.LessThanOrEqual(decimal.Zero)
}

// TuitionFeeFilters narrows fee searches. Nil fields are ignored; Period, when
// set, must already be normalized to the first of its month.
type TuitionFeeFilters struct {
	StudentID *uuid.UUID
	ClassID   *uuid.UUID
	Period    *time.Time
	Page      int32
	PageSize  int32
}

// PaginatedTuitionFees is one page of fee search results.
type PaginatedTuitionFees struct {
	Data       []*TuitionFee `json:"data"`
	Page       int32         `json:"page"`
	PageSize   int32         `json:"pageSize"`
	TotalItems int64         `json:"totalItems"`
	TotalPages int32         `json:"totalPages"`
}

// TuitionFeeRepository persists the tuition-fee ledger. ForUpdate variants
// lock the row for the remainder of the transaction so that concurrent
// recompute/payment calls on the same fee serialize.
type TuitionFeeRepository interface {
	CreateTx(tx any, fee *TuitionFee) (*TuitionFee, error)
	GetByID(id uuid.UUID) (*TuitionFee, error)
	GetByIDForUpdateTx(tx any, id uuid.UUID) (*TuitionFee, error)
	GetByStudentAndPeriodForUpdateTx(tx any, studentID uuid.UUID, period time.Time) (*TuitionFee, error)
	UpdateTx(tx any, fee *TuitionFee) (*TuitionFee, error)
	Search(filters *TuitionFeeFilters) (*PaginatedTuitionFees, error)
}
