package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
)

// StudentRepository implements domain.StudentRepository using PostgreSQL
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const getStudentByIDQuery = `
SELECT id, full_name, created_at, updated_at
FROM students
WHERE id = $1`

const getStudentDiscountsQuery = `
SELECT class_id, percent
FROM student_discounts
WHERE student_id = $1`

// GetByID retrieves a student and their per-class discounts
func (r *StudentRepository) GetByID(id uuid.UUID) (*domain.Student, error) {
	ctx := context.Background()

	var student domain.Student
	err := r.pool.QueryRow(ctx, getStudentByIDQuery, id).Scan(
		&student.ID,
		&student.FullName,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStudentNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, getStudentDiscountsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var discount domain.ClassDiscount
		if err := rows.Scan(&discount.ClassID, &discount.Percent); err != nil {
			return nil, err
		}
		student.ClassDiscounts = append(student.ClassDiscounts, discount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &student, nil
}
