package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
)

// ClassRepository implements domain.ClassRepository using PostgreSQL
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

const getClassByIDQuery = `
SELECT id, name, unit_price, start_date, end_date, scheduled_weekdays, status, created_at, updated_at
FROM classes
WHERE id = $1`

const getEnrolledStudentsQuery = `
SELECT student_id
FROM class_students
WHERE class_id = $1
ORDER BY enrolled_at`

// GetByID retrieves a class and its current roster
func (r *ClassRepository) GetByID(id uuid.UUID) (*domain.Class, error) {
	ctx := context.Background()

	var class domain.Class
	var weekdays []int16
	var unitPrice pgtype.Numeric
	err := r.pool.QueryRow(ctx, getClassByIDQuery, id).Scan(
		&class.ID,
		&class.Name,
		&unitPrice,
		&class.StartDate,
		&class.EndDate,
		&weekdays,
		&class.Status,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClassNotFound
		}
		return nil, err
	}

	class.UnitPrice = pgNumericToDecimal(unitPrice)
	class.ScheduledWeekdays = make([]time.Weekday, len(weekdays))
	for i, wd := range weekdays {
		class.ScheduledWeekdays[i] = time.Weekday(wd)
	}

	rows, err := r.pool.Query(ctx, getEnrolledStudentsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var studentID uuid.UUID
		if err := rows.Scan(&studentID); err != nil {
			return nil, err
		}
		class.EnrolledStudentIDs = append(class.EnrolledStudentIDs, studentID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &class, nil
}
