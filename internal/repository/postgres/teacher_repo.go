package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
)

// TeacherRepository implements domain.TeacherRepository using PostgreSQL
type TeacherRepository struct {
	pool *pgxpool.Pool
}

// NewTeacherRepository creates a new TeacherRepository
func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

const getTeacherByIDQuery = `
SELECT id, full_name, created_at, updated_at
FROM teachers
WHERE id = $1`

// GetByID retrieves a teacher by ID
func (r *TeacherRepository) GetByID(id uuid.UUID) (*domain.Teacher, error) {
	var teacher domain.Teacher
	err := r.pool.QueryRow(context.Background(), getTeacherByIDQuery, id).Scan(
		&teacher.ID,
		&teacher.FullName,
		&teacher.CreatedAt,
		&teacher.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeacherNotFound
		}
		return nil, err
	}
	return &teacher, nil
}
