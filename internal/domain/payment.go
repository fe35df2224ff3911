package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAmountInvalid = errors.New("payment amount must be greater than zero")
)

// Payment is an immutable record of money received against a tuition fee.
// PaidAmount is the amount credited to the fee after reconciliation, which
// may be less than what was tendered when the fee was nearly settled.
type Payment struct {
	ID           uuid.UUID       `json:"id"`
	TuitionFeeID uuid.UUID       `json:"tuitionFeeId"`
	PaidAmount   decimal.Decimal `json:"paidAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// PaymentFilters narrows payment history listings.
type PaymentFilters struct {
	StudentID uuid.UUID
	ClassID   *uuid.UUID
	Page      int32
	PageSize  int32
}

// PaginatedPayments is one page of payment history, newest first.
type PaginatedPayments struct {
	Data       []*Payment `json:"data"`
	Page       int32      `json:"page"`
	PageSize   int32      `json:"pageSize"`
	TotalItems int64      `json:"totalItems"`
	TotalPages int32      `json:"totalPages"`
}

type PaymentRepository interface {
	CreateTx(tx any, payment *Payment) (*Payment, error)
	GetByID(id uuid.UUID) (*Payment, error)
	ListByStudent(filters *PaymentFilters) (*PaginatedPayments, error)
}
