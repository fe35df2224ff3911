package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrTeacherNotFound = errors.New("teacher not found")

// Teacher is the payroll ledger's view of a teacher.
type Teacher struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TeacherRepository is the narrow contract the payroll ledger needs from the
// teacher directory.
type TeacherRepository interface {
	GetByID(id uuid.UUID) (*Teacher, error)
}
