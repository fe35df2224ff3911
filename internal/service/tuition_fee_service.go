package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
	"github.com/minhvu/edupay/edupay-backend/internal/util"
	"github.com/minhvu/edupay/edupay-backend/internal/websocket"
)

var oneHundred = decimal.NewFromInt(100)

// TuitionFeeService derives monthly tuition fees from attendance and keeps
// the fee ledger consistent with it
type TuitionFeeService struct {
	classRepo      domain.ClassRepository
	studentRepo    domain.StudentRepository
	attendanceRepo domain.AttendanceRepository
	feeRepo        domain.TuitionFeeRepository
	txManager      domain.TxManager
	eventPublisher websocket.EventPublisher
}

// NewTuitionFeeService creates a new TuitionFeeService
func NewTuitionFeeService(
	classRepo domain.ClassRepository,
	studentRepo domain.StudentRepository,
	attendanceRepo domain.AttendanceRepository,
	feeRepo domain.TuitionFeeRepository,
	txManager domain.TxManager,
) *TuitionFeeService {
	return &TuitionFeeService{
		classRepo:      classRepo,
		studentRepo:    studentRepo,
		attendanceRepo: attendanceRepo,
		feeRepo:        feeRepo,
		txManager:      txManager,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TuitionFeeService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *TuitionFeeService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// ComputeFee derives (or re-derives) the fee for a student in a class for a
// billing period and upserts the single ledger row for that (student, period).
// The amount is unitPrice * presentSessions * (100 - discount) / 100, rounded
// half up to 2 decimal places. Prior payments are preserved across a
// recompute; the remaining balance is clamped at zero.
func (s *TuitionFeeService) ComputeFee(studentID, classID uuid.UUID, period time.Time) (*domain.TuitionFee, error) {
	var fee *domain.TuitionFee
	compute := func(tx any) error {
		var txErr error
		fee, txErr = s.computeFeeTx(tx, studentID, classID, period)
		return txErr
	}
	err := s.txManager.WithinTx(context.Background(), compute)
	if errors.Is(err, domain.ErrTuitionFeeAlreadyExists) {
		// Lost a first-compute race for the ledger row; the aborted
		// transaction is retried and finds the row to reprice.
		err = s.txManager.WithinTx(context.Background(), compute)
	}
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.TuitionFeeRecomputed(fee))

	return fee, nil
}

// computeFeeTx is the transactional core of ComputeFee. It is also invoked by
// the attendance service after a presence change so that the update and the
// recompute commit together.
func (s *TuitionFeeService) computeFeeTx(tx any, studentID, classID uuid.UUID, period time.Time) (*domain.TuitionFee, error) {
	class, err := s.classRepo.GetByID(classID)
	if err != nil {
		return nil, err
	}

	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		return nil, err
	}

	period = util.NormalizePeriod(period)
	first, last := util.MonthBounds(period)

	records, err := s.attendanceRepo.GetByClassAndDateRangeTx(tx, classID, first, last)
	if err != nil {
		return nil, err
	}

	presentSessions := countPresent(records, studentID)
	discount := student.DiscountFor(classID)
	amount := feeAmount(class.UnitPrice, presentSessions, discount)

	fee, err := s.feeRepo.GetByStudentAndPeriodForUpdateTx(tx, studentID, period)
	if err != nil {
		if !errors.Is(err, domain.ErrTuitionFeeNotFound) {
			return nil, err
		}
		fee = &domain.TuitionFee{
			StudentID:       studentID,
			ClassID:         classID,
			Period:          period,
			Amount:          amount,
			DiscountPercent: discount,
			PaidAmount:      decimal.Zero,
			RemainingAmount: amount,
		}
		return s.feeRepo.CreateTx(tx, fee)
	}

	fee.Reprice(amount, discount)
	return s.feeRepo.UpdateTx(tx, fee)
}

// GetByID retrieves a tuition fee by ID
func (s *TuitionFeeService) GetByID(id uuid.UUID) (*domain.TuitionFee, error) {
	return s.feeRepo.GetByID(id)
}

// Search retrieves a filtered page of tuition fees
func (s *TuitionFeeService) Search(filters *domain.TuitionFeeFilters) (*domain.PaginatedTuitionFees, error) {
	filters.Page, filters.PageSize = domain.NormalizePage(filters.Page, filters.PageSize)
	if filters.Period != nil {
		normalized := util.NormalizePeriod(*filters.Period)
		filters.Period = &normalized
	}
	return s.feeRepo.Search(filters)
}

// feeAmount computes unitPrice * sessions * (100 - discount) / 100 rounded
// half up to 2 decimal places.
func feeAmount(unitPrice decimal.Decimal, presentSessions int, discountPercent int32) decimal.Decimal {
	return unitPrice.
		Mul(decimal.NewFromInt(int64(presentSessions))).
		Mul(oneHundred.Sub(decimal.NewFromInt32(discountPercent))).
		Div(oneHundred).
		Round(2)
}

// countPresent counts the records in which the student is marked present.
func countPresent(records []*domain.AttendanceRecord, studentID uuid.UUID) int {
	count := 0
	for _, record := range records {
		if status, ok := record.StatusOf(studentID); ok && status == domain.AttendanceStatusPresent {
			count++
		}
	}
	return count
}
