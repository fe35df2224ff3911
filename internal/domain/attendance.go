package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAttendanceNotFound      = errors.New("attendance record not found")
	ErrAttendanceAlreadyExists = errors.New("attendance record already exists for this class and date")
)

// AttendanceStatus is a student's presence status on a class day.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
)

// StudentAttendance is one student's entry within a class/day record. The
// same shape doubles as the patch tuple for presence updates.
type StudentAttendance struct {
	StudentID uuid.UUID        `json:"studentId"`
	Status    AttendanceStatus `json:"status"`
	Note      string           `json:"note,omitempty"`
}

// AttendanceRecord is the per-class, per-day attendance sheet. At most one
// record exists per (classID, date); it owns an ordered entry per enrolled
// student.
type AttendanceRecord struct {
	ID        uuid.UUID           `json:"id"`
	ClassID   uuid.UUID           `json:"classId"`
	Date      time.Time           `json:"date"`
	Entries   []StudentAttendance `json:"entries"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// StatusOf returns the recorded status for a student, if present on the sheet.
func (r *AttendanceRecord) StatusOf(studentID uuid.UUID) (AttendanceStatus, bool) {
	for _, e := range r.Entries {
		if e.StudentID == studentID {
			return e.Status, true
		}
	}
	return "", false
}

// ApplyUpdates replaces the listed students' statuses and notes; students not
// listed keep their prior entries. Students listed but not yet on the sheet
// are appended. Returns the IDs of every student whose entry was touched.
func (r *AttendanceRecord) ApplyUpdates(updates []StudentAttendance) []uuid.UUID {
	touched := make([]uuid.UUID, 0, len(updates))
	for _, u := range updates {
		found := false
		for i := range r.Entries {
			if r.Entries[i].StudentID == u.StudentID {
				r.Entries[i].Status = u.Status
				r.Entries[i].Note = u.Note
				found = true
				break
			}
		}
		if !found {
			r.Entries = append(r.Entries, u)
		}
		touched = append(touched, u.StudentID)
	}
	return touched
}

// AttendanceFilters narrows attendance searches. Nil fields are ignored.
type AttendanceFilters struct {
	ClassID   *uuid.UUID
	StudentID *uuid.UUID
	Date      *time.Time
	Page      int32
	PageSize  int32
}

// PaginatedAttendance is one page of attendance search results.
type PaginatedAttendance struct {
	Data       []*AttendanceRecord `json:"data"`
	Page       int32               `json:"page"`
	PageSize   int32               `json:"pageSize"`
	TotalItems int64               `json:"totalItems"`
	TotalPages int32               `json:"totalPages"`
}

// AttendanceRepository persists class/day attendance sheets. Tx variants take
// the transaction handle produced by TxManager.
type AttendanceRepository interface {
	Create(record *AttendanceRecord) (*AttendanceRecord, error)
	GetByID(id uuid.UUID) (*AttendanceRecord, error)
	GetByIDForUpdateTx(tx any, id uuid.UUID) (*AttendanceRecord, error)
	GetByClassAndDate(classID uuid.UUID, date time.Time) (*AttendanceRecord, error)
	GetByClassAndDateRange(classID uuid.UUID, start, end time.Time) ([]*AttendanceRecord, error)
	GetByClassAndDateRangeTx(tx any, classID uuid.UUID, start, end time.Time) ([]*AttendanceRecord, error)
	UpdateTx(tx any, record *AttendanceRecord) (*AttendanceRecord, error)
	Search(filters *AttendanceFilters) (*PaginatedAttendance, error)
}
