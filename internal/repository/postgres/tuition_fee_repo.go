package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
)

// TuitionFeeRepository implements domain.TuitionFeeRepository using PostgreSQL
type TuitionFeeRepository struct {
	pool *pgxpool.Pool
}

// NewTuitionFeeRepository creates a new TuitionFeeRepository
func NewTuitionFeeRepository(pool *pgxpool.Pool) *TuitionFeeRepository {
	return &TuitionFeeRepository{pool: pool}
}

const feeColumns = `id, student_id, class_id, period, amount, discount_percent, paid_amount, remaining_amount, created_at, updated_at`

const createFeeQuery = `
INSERT INTO tuition_fees (student_id, class_id, period, amount, discount_percent, paid_amount, remaining_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + feeColumns

const getFeeByIDQuery = `
SELECT ` + feeColumns + `
FROM tuition_fees
WHERE id = $1`

const getFeeByIDForUpdateQuery = getFeeByIDQuery + `
FOR UPDATE`

const getFeeByStudentAndPeriodForUpdateQuery = `
SELECT ` + feeColumns + `
FROM tuition_fees
WHERE student_id = $1 AND period = $2
FOR UPDATE`

const updateFeeQuery = `
UPDATE tuition_fees
SET amount = $2, discount_percent = $3, paid_amount = $4, remaining_amount = $5, updated_at = now()
WHERE id = $1
RETURNING ` + feeColumns

// CreateTx inserts a new fee ledger row within a transaction
func (r *TuitionFeeRepository) CreateTx(tx any, fee *domain.TuitionFee) (*domain.TuitionFee, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	amount, err := decimalToPgNumeric(fee.Amount)
	if err != nil {
		return nil, err
	}
	paid, err := decimalToPgNumeric(fee.PaidAmount)
	if err != nil {
		return nil, err
	}
	remaining, err := decimalToPgNumeric(fee.RemainingAmount)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(context.Background(), createFeeQuery,
		fee.StudentID, fee.ClassID, toPgDate(fee.Period),
		amount, fee.DiscountPercent, paid, remaining)
	created, err := scanFee(row)
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent compute created the (student, period) row first.
			// A retry in a fresh transaction takes the reprice path.
			return nil, domain.ErrTuitionFeeAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a fee ledger row by ID
func (r *TuitionFeeRepository) GetByID(id uuid.UUID) (*domain.TuitionFee, error) {
	fee, err := scanFee(r.pool.QueryRow(context.Background(), getFeeByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTuitionFeeNotFound
		}
		return nil, err
	}
	return fee, nil
}

// GetByIDForUpdateTx retrieves a fee row and locks it for the transaction
func (r *TuitionFeeRepository) GetByIDForUpdateTx(tx any, id uuid.UUID) (*domain.TuitionFee, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	fee, err := scanFee(pgxTx.QueryRow(context.Background(), getFeeByIDForUpdateQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTuitionFeeNotFound
		}
		return nil, err
	}
	return fee, nil
}

// GetByStudentAndPeriodForUpdateTx retrieves the single fee row for a student
// and billing period and locks it for the transaction
func (r *TuitionFeeRepository) GetByStudentAndPeriodForUpdateTx(tx any, studentID uuid.UUID, period time.Time) (*domain.TuitionFee, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	fee, err := scanFee(pgxTx.QueryRow(context.Background(), getFeeByStudentAndPeriodForUpdateQuery,
		studentID, toPgDate(period)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTuitionFeeNotFound
		}
		return nil, err
	}
	return fee, nil
}

// UpdateTx rewrites a fee row's amounts within a transaction
func (r *TuitionFeeRepository) UpdateTx(tx any, fee *domain.TuitionFee) (*domain.TuitionFee, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	amount, err := decimalToPgNumeric(fee.Amount)
	if err != nil {
		return nil, err
	}
	paid, err := decimalToPgNumeric(fee.PaidAmount)
	if err != nil {
		return nil, err
	}
	remaining, err := decimalToPgNumeric(fee.RemainingAmount)
	if err != nil {
		return nil, err
	}

	updated, err := scanFee(pgxTx.QueryRow(context.Background(), updateFeeQuery,
		fee.ID, amount, fee.DiscountPercent, paid, remaining))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTuitionFeeNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Search retrieves a filtered page of fee ledger rows, newest period first
func (r *TuitionFeeRepository) Search(filters *domain.TuitionFeeFilters) (*domain.PaginatedTuitionFees, error) {
	ctx := context.Background()
	page, pageSize := domain.NormalizePage(filters.Page, filters.PageSize)

	where := "WHERE 1=1"
	args := []any{}
	idx := 1

	if filters.StudentID != nil {
		where += fmt.Sprintf(" AND student_id = $%d", idx)
		args = append(args, *filters.StudentID)
		idx++
	}
	if filters.ClassID != nil {
		where += fmt.Sprintf(" AND class_id = $%d", idx)
		args = append(args, *filters.ClassID)
		idx++
	}
	if filters.Period != nil {
		where += fmt.Sprintf(" AND period = $%d", idx)
		args = append(args, toPgDate(*filters.Period))
		idx++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM tuition_fees "+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	listQuery := fmt.Sprintf(`
SELECT %s
FROM tuition_fees %s
ORDER BY period DESC, created_at DESC
LIMIT $%d OFFSET $%d`, feeColumns, where, idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fees := []*domain.TuitionFee{}
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		fees = append(fees, fee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.PaginatedTuitionFees{
		Data:       fees,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: domain.TotalPages(total, pageSize),
	}, nil
}

func scanFee(row pgx.Row) (*domain.TuitionFee, error) {
	var fee domain.TuitionFee
	var amount, paid, remaining pgtype.Numeric
	err := row.Scan(
		&fee.ID,
		&fee.StudentID,
		&fee.ClassID,
		&fee.Period,
		&amount,
		&fee.DiscountPercent,
		&paid,
		&remaining,
		&fee.CreatedAt,
		&fee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	fee.Amount = pgNumericToDecimal(amount)
	fee.PaidAmount = pgNumericToDecimal(paid)
	fee.RemainingAmount = pgNumericToDecimal(remaining)
	return &fee, nil
}
