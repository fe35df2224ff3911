package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTeacherPaymentNotFound     = errors.New("teacher payment not found")
	ErrPayrollAlreadyPaid         = errors.New("teacher is already fully paid for this period")
	ErrPayrollMonthInvalid        = errors.New("payroll month must be between 1 and 12")
	ErrPayrollAmountInvalid       = errors.New("payroll amount must be greater than zero")
	ErrPayrollPaidAmountInvalid   = errors.New("payroll paid amount must be zero or greater")
	ErrPayrollPaidExceedsContract = errors.New("payroll paid amount must not exceed the contracted amount")
)

// SettlementStatus describes how much of a monetary obligation has been met.
// It applies to both student tuition fees and teacher payroll entries.
type SettlementStatus string

const (
	SettlementUnpaid        SettlementStatus = "UNPAID"
	SettlementPartiallyPaid SettlementStatus = "PARTIALLY_PAID"
	SettlementPaid          SettlementStatus = "PAID"
)

// DeriveSettlementStatus classifies an obligation from its contracted amount
// and outstanding remainder. Remaining at or below zero means fully paid; a
// remainder strictly between zero and the amount means partially paid.
func DeriveSettlementStatus(amount, remaining decimal.Decimal) SettlementStatus {
	switch {
	case remaining.LessThanOrEqual(decimal.Zero):
		return SettlementPaid
	case remaining.LessThan(amount):
		return SettlementPartiallyPaid
	default:
		return SettlementUnpaid
	}
}

// TeacherPayment is one payroll ledger entry for a teacher in a salary
// period. Entries are append-mostly: a new disbursement for a period whose
// latest entry still carries a remainder continues from that remainder.
type TeacherPayment struct {
	ID              uuid.UUID        `json:"id"`
	TeacherID       uuid.UUID        `json:"teacherId"`
	Month           int32            `json:"month"`
	Year            int32            `json:"year"`
	Amount          decimal.Decimal  `json:"amount"`
	PaidAmount      decimal.Decimal  `json:"paidAmount"`
	RemainingAmount decimal.Decimal  `json:"remainingAmount"`
	Status          SettlementStatus `json:"status"`
	Note            string           `json:"note,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Validate checks the period and amounts of a payroll entry before it is
// persisted.
func (p *TeacherPayment) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrPayrollMonthInvalid
	}
	if !p.Amount.IsPositive() {
		return ErrPayrollAmountInvalid
	}
	if p.PaidAmount.IsNegative() {
		return ErrPayrollPaidAmountInvalid
	}
	if p.PaidAmount.GreaterThan(p.Amount) {
		return ErrPayrollPaidExceedsContract
	}
	return nil
}

// RecomputeBalance rederives the remainder and status from the contracted
// and paid amounts, clamping the remainder at zero.
func (p *TeacherPayment) RecomputeBalance() {
	p.RemainingAmount = p.Amount.Sub(p.PaidAmount)
	if p.RemainingAmount.IsNegative() {
		p.RemainingAmount = decimal.Zero
	}
	p.Status = DeriveSettlementStatus(p.Amount, p.RemainingAmount)
}

// CreateTeacherPaymentInput is the payload for recording a payroll
// disbursement.
type CreateTeacherPaymentInput struct {
	TeacherID  uuid.UUID       `json:"teacherId"`
	Month      int32           `json:"month"`
	Year       int32           `json:"year"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	Note       string          `json:"note,omitempty"`
}

// TeacherPaymentFilters narrows payroll searches. Month and Year are only
// applied when both are set.
type TeacherPaymentFilters struct {
	TeacherID *uuid.UUID
	Month     *int32
	Year      *int32
	Status    *SettlementStatus
	Page      int32
	PageSize  int32
}

// PaginatedTeacherPayments is one page of payroll search results.
type PaginatedTeacherPayments struct {
	Data       []*TeacherPayment `json:"data"`
	Page       int32             `json:"page"`
	PageSize   int32             `json:"pageSize"`
	TotalItems int64             `json:"totalItems"`
	TotalPages int32             `json:"totalPages"`
}

type TeacherPaymentRepository interface {
	CreateTx(tx any, payment *TeacherPayment) (*TeacherPayment, error)
	GetByID(id uuid.UUID) (*TeacherPayment, error)
	GetByIDForUpdateTx(tx any, id uuid.UUID) (*TeacherPayment, error)
	// GetLatestForPeriodForUpdateTx returns the most recently created entry
	// for the teacher and period, or ErrTeacherPaymentNotFound when the
	// period has no entries yet.
	GetLatestForPeriodForUpdateTx(tx any, teacherID uuid.UUID, month, year int32) (*TeacherPayment, error)
	UpdateTx(tx any, payment *TeacherPayment) (*TeacherPayment, error)
	Search(filters *TeacherPaymentFilters) (*PaginatedTeacherPayments, error)
}
