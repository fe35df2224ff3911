package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
)

// TeacherPaymentRepository implements domain.TeacherPaymentRepository using PostgreSQL
type TeacherPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewTeacherPaymentRepository creates a new TeacherPaymentRepository
func NewTeacherPaymentRepository(pool *pgxpool.Pool) *TeacherPaymentRepository {
	return &TeacherPaymentRepository{pool: pool}
}

const teacherPaymentColumns = `id, teacher_id, month, year, amount, paid_amount, remaining_amount, status, note, created_at, updated_at`

const createTeacherPaymentQuery = `
INSERT INTO teacher_payments (teacher_id, month, year, amount, paid_amount, remaining_amount, status, note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + teacherPaymentColumns

const getTeacherPaymentByIDQuery = `
SELECT ` + teacherPaymentColumns + `
FROM teacher_payments
WHERE id = $1`

const getTeacherPaymentByIDForUpdateQuery = getTeacherPaymentByIDQuery + `
FOR UPDATE`

const getLatestTeacherPaymentForPeriodQuery = `
SELECT ` + teacherPaymentColumns + `
FROM teacher_payments
WHERE teacher_id = $1 AND month = $2 AND year = $3
ORDER BY created_at DESC
LIMIT 1
FOR UPDATE`

const updateTeacherPaymentQuery = `
UPDATE teacher_payments
SET paid_amount = $2, remaining_amount = $3, status = $4, note = $5, updated_at = now()
WHERE id = $1
RETURNING ` + teacherPaymentColumns

// CreateTx inserts a payroll entry within a transaction
func (r *TeacherPaymentRepository) CreateTx(tx any, payment *domain.TeacherPayment) (*domain.TeacherPayment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, err
	}
	paid, err := decimalToPgNumeric(payment.PaidAmount)
	if err != nil {
		return nil, err
	}
	remaining, err := decimalToPgNumeric(payment.RemainingAmount)
	if err != nil {
		return nil, err
	}

	return scanTeacherPayment(pgxTx.QueryRow(context.Background(), createTeacherPaymentQuery,
		payment.TeacherID, payment.Month, payment.Year,
		amount, paid, remaining, string(payment.Status), payment.Note))
}

// GetByID retrieves a payroll entry by ID
func (r *TeacherPaymentRepository) GetByID(id uuid.UUID) (*domain.TeacherPayment, error) {
	payment, err := scanTeacherPayment(r.pool.QueryRow(context.Background(), getTeacherPaymentByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeacherPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetByIDForUpdateTx retrieves a payroll entry and locks it for the transaction
func (r *TeacherPaymentRepository) GetByIDForUpdateTx(tx any, id uuid.UUID) (*domain.TeacherPayment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	payment, err := scanTeacherPayment(pgxTx.QueryRow(context.Background(), getTeacherPaymentByIDForUpdateQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeacherPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetLatestForPeriodForUpdateTx retrieves the most recently created entry for
// the teacher and salary period, locking it so concurrent disbursements for
// the same period serialize.
func (r *TeacherPaymentRepository) GetLatestForPeriodForUpdateTx(tx any, teacherID uuid.UUID, month, year int32) (*domain.TeacherPayment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	payment, err := scanTeacherPayment(pgxTx.QueryRow(context.Background(), getLatestTeacherPaymentForPeriodQuery,
		teacherID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeacherPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// UpdateTx rewrites a payroll entry's amounts within a transaction
func (r *TeacherPaymentRepository) UpdateTx(tx any, payment *domain.TeacherPayment) (*domain.TeacherPayment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	paid, err := decimalToPgNumeric(payment.PaidAmount)
	if err != nil {
		return nil, err
	}
	remaining, err := decimalToPgNumeric(payment.RemainingAmount)
	if err != nil {
		return nil, err
	}

	updated, err := scanTeacherPayment(pgxTx.QueryRow(context.Background(), updateTeacherPaymentQuery,
		payment.ID, paid, remaining, string(payment.Status), payment.Note))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeacherPaymentNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Search retrieves a filtered page of payroll entries, newest first
func (r *TeacherPaymentRepository) Search(filters *domain.TeacherPaymentFilters) (*domain.PaginatedTeacherPayments, error) {
	ctx := context.Background()
	page, pageSize := domain.NormalizePage(filters.Page, filters.PageSize)

	where := "WHERE 1=1"
	args := []any{}
	idx := 1

	if filters.TeacherID != nil {
		where += fmt.Sprintf(" AND teacher_id = $%d", idx)
		args = append(args, *filters.TeacherID)
		idx++
	}
	if filters.Month != nil && filters.Year != nil {
		where += fmt.Sprintf(" AND month = $%d AND year = $%d", idx, idx+1)
		args = append(args, *filters.Month, *filters.Year)
		idx += 2
	}
	if filters.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, string(*filters.Status))
		idx++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM teacher_payments "+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	listQuery := fmt.Sprintf(`
SELECT %s
FROM teacher_payments %s
ORDER BY created_at DESC
LIMIT $%d OFFSET $%d`, teacherPaymentColumns, where, idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*domain.TeacherPayment{}
	for rows.Next() {
		payment, err := scanTeacherPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.PaginatedTeacherPayments{
		Data:       payments,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: domain.TotalPages(total, pageSize),
	}, nil
}

func scanTeacherPayment(row pgx.Row) (*domain.TeacherPayment, error) {
	var payment domain.TeacherPayment
	var amount, paid, remaining pgtype.Numeric
	var status string
	var note pgtype.Text
	err := row.Scan(
		&payment.ID,
		&payment.TeacherID,
		&payment.Month,
		&payment.Year,
		&amount,
		&paid,
		&remaining,
		&status,
		&note,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	payment.Amount = pgNumericToDecimal(amount)
	payment.PaidAmount = pgNumericToDecimal(paid)
	payment.RemainingAmount = pgNumericToDecimal(remaining)
	payment.Status = domain.SettlementStatus(status)
	if note.Valid {
		payment.Note = note.String
	}
	return &payment, nil
}
