package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrStudentNotFound = errors.New("student not found")

// ClassDiscount is a per-class percentage reduction carried on the student's
// profile. It is owned by class-membership operations; billing only reads it,
// at computation time.
type ClassDiscount struct {
	ClassID uuid.UUID `json:"classId"`
	Percent int32     `json:"percent"`
}

// Student is the billing engine's view of a student: identity plus the
// class-discount list consulted during fee computation.
type Student struct {
	ID             uuid.UUID       `json:"id"`
	FullName       string          `json:"fullName"`
	ClassDiscounts []ClassDiscount `json:"classDiscounts"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// DiscountFor returns the student's discount percent for a class, defaulting
// to 0 when no discount is registered for it.
func (s *Student) DiscountFor(classID uuid.UUID) int32 {
	for _, cd := range s.ClassDiscounts {
		if cd.ClassID == classID {
			return cd.Percent
		}
	}
	return 0
}

// StudentRepository is the narrow contract the billing engine needs from the
// student directory.
type StudentRepository interface {
	GetByID(id uuid.UUID) (*Student, error)
}
