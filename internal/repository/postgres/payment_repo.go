package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
)

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const createPaymentQuery = `
INSERT INTO payments (tuition_fee_id, paid_amount)
VALUES ($1, $2)
RETURNING id, tuition_fee_id, paid_amount, created_at`

const getPaymentByIDQuery = `
SELECT id, tuition_fee_id, paid_amount, created_at
FROM payments
WHERE id = $1`

// History listings join through the fee row, which carries the student and
// class the payment was credited to.
const countPaymentsByStudentQuery = `
SELECT count(*)
FROM payments p
JOIN tuition_fees f ON f.id = p.tuition_fee_id
WHERE f.student_id = $1 AND ($2::uuid IS NULL OR f.class_id = $2)`

const listPaymentsByStudentQuery = `
SELECT p.id, p.tuition_fee_id, p.paid_amount, p.created_at
FROM payments p
JOIN tuition_fees f ON f.id = p.tuition_fee_id
WHERE f.student_id = $1 AND ($2::uuid IS NULL OR f.class_id = $2)
ORDER BY p.created_at DESC
LIMIT $3 OFFSET $4`

// CreateTx inserts a payment record within a transaction
func (r *PaymentRepository) CreateTx(tx any, payment *domain.Payment) (*domain.Payment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	paid, err := decimalToPgNumeric(payment.PaidAmount)
	if err != nil {
		return nil, err
	}

	return scanPayment(pgxTx.QueryRow(context.Background(), createPaymentQuery,
		payment.TuitionFeeID, paid))
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(id uuid.UUID) (*domain.Payment, error) {
	payment, err := scanPayment(r.pool.QueryRow(context.Background(), getPaymentByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// ListByStudent retrieves a page of a student's payment history, newest first
func (r *PaymentRepository) ListByStudent(filters *domain.PaymentFilters) (*domain.PaginatedPayments, error) {
	ctx := context.Background()
	page, pageSize := domain.NormalizePage(filters.Page, filters.PageSize)

	var classID any
	if filters.ClassID != nil {
		classID = *filters.ClassID
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countPaymentsByStudentQuery, filters.StudentID, classID).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, listPaymentsByStudentQuery,
		filters.StudentID, classID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*domain.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.PaginatedPayments{
		Data:       payments,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: domain.TotalPages(total, pageSize),
	}, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var paid pgtype.Numeric
	err := row.Scan(
		&payment.ID,
		&payment.TuitionFeeID,
		&paid,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	payment.PaidAmount = pgNumericToDecimal(paid)
	return &payment, nil
}
