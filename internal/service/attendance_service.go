package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
	"github.com/minhvu/edupay/edupay-backend/internal/util"
	"github.com/minhvu/edupay/edupay-backend/internal/websocket"
)

// AttendanceService owns the per-class, per-day attendance sheets and keeps
// the fee ledger in sync when presence changes
type AttendanceService struct {
	classRepo      domain.ClassRepository
	attendanceRepo domain.AttendanceRepository
	feeService     *TuitionFeeService
	txManager      domain.TxManager
	eventPublisher websocket.EventPublisher
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(
	classRepo domain.ClassRepository,
	attendanceRepo domain.AttendanceRepository,
	feeService *TuitionFeeService,
	txManager domain.TxManager,
) *AttendanceService {
	return &AttendanceService{
		classRepo:      classRepo,
		attendanceRepo: attendanceRepo,
		feeService:     feeService,
		txManager:      txManager,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *AttendanceService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *AttendanceService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// GetOrCreateToday returns today's attendance sheet for a class, creating it
// with every enrolled student marked absent if it does not exist yet.
func (s *AttendanceService) GetOrCreateToday(classID uuid.UUID) (*domain.AttendanceRecord, error) {
	return s.GetOrCreateForDate(classID, time.Now().UTC())
}

// GetOrCreateForDate returns the attendance sheet for a class on a calendar
// day, creating it if needed. The day must fall within the class period and
// on a scheduled weekday.
func (s *AttendanceService) GetOrCreateForDate(classID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	class, err := s.classRepo.GetByID(classID)
	if err != nil {
		return nil, err
	}
	if err := class.SessionDayError(day); err != nil {
		return nil, err
	}

	record, err := s.attendanceRepo.GetByClassAndDate(classID, day)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, domain.ErrAttendanceNotFound) {
		return nil, err
	}

	entries := make([]domain.StudentAttendance, 0, len(class.EnrolledStudentIDs))
	for _, studentID := range class.EnrolledStudentIDs {
		entries = append(entries, domain.StudentAttendance{
			StudentID: studentID,
			Status:    domain.AttendanceStatusAbsent,
		})
	}

	record = &domain.AttendanceRecord{
		ClassID: classID,
		Date:    day,
		Entries: entries,
	}

	created, err := s.attendanceRepo.Create(record)
	if err != nil {
		// Lost the race against a concurrent create for the same day
		if errors.Is(err, domain.ErrAttendanceAlreadyExists) {
			return s.attendanceRepo.GetByClassAndDate(classID, day)
		}
		return nil, err
	}

	s.publishEvent(websocket.AttendanceCreated(created))

	return created, nil
}

// SetPresence patches the listed students' entries on an attendance sheet and
// recomputes each touched student's fee for the sheet's billing period. The
// patch and every recompute commit in a single transaction.
func (s *AttendanceService) SetPresence(recordID uuid.UUID, updates []domain.StudentAttendance) (*domain.AttendanceRecord, error) {
	if len(updates) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, u := range updates {
		if u.Status != domain.AttendanceStatusPresent && u.Status != domain.AttendanceStatusAbsent {
			return nil, domain.ErrInvalidInput
		}
	}

	var updated *domain.AttendanceRecord
	var fees []*domain.TuitionFee
	err := s.txManager.WithinTx(context.Background(), func(tx any) error {
		// Lock the sheet before patching so concurrent edits to the same
		// day's roster serialize instead of overwriting each other's entries.
		record, txErr := s.attendanceRepo.GetByIDForUpdateTx(tx, recordID)
		if txErr != nil {
			return txErr
		}

		touched := record.ApplyUpdates(updates)
		period := util.NormalizePeriod(record.Date)

		updated, txErr = s.attendanceRepo.UpdateTx(tx, record)
		if txErr != nil {
			return txErr
		}

		fees = make([]*domain.TuitionFee, 0, len(touched))
		for _, studentID := range touched {
			fee, txErr := s.feeService.computeFeeTx(tx, studentID, record.ClassID, period)
			if txErr != nil {
				return txErr
			}
			fees = append(fees, fee)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.AttendanceUpdated(updated))
	for _, fee := range fees {
		s.publishEvent(websocket.TuitionFeeRecomputed(fee))
	}

	return updated, nil
}

// CountPresentSessions counts how many sessions a student attended in a class
// during a billing period.
func (s *AttendanceService) CountPresentSessions(studentID, classID uuid.UUID, period time.Time) (int, error) {
	first, last := util.MonthBounds(period)
	records, err := s.attendanceRepo.GetByClassAndDateRange(classID, first, last)
	if err != nil {
		return 0, err
	}
	return countPresent(records, studentID), nil
}

// GetByID retrieves an attendance record by ID
func (s *AttendanceService) GetByID(id uuid.UUID) (*domain.AttendanceRecord, error) {
	return s.attendanceRepo.GetByID(id)
}

// Search retrieves a filtered page of attendance records
func (s *AttendanceService) Search(filters *domain.AttendanceFilters) (*domain.PaginatedAttendance, error) {
	filters.Page, filters.PageSize = domain.NormalizePage(filters.Page, filters.PageSize)
	return s.attendanceRepo.Search(filters)
}
