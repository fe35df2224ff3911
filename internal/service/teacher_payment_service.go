package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
	"github.com/minhvu/edupay/edupay-backend/internal/websocket"
)

// TeacherPaymentService owns the payroll ledger for teacher salary periods
type TeacherPaymentService struct {
	teacherRepo    domain.TeacherRepository
	paymentRepo    domain.TeacherPaymentRepository
	txManager      domain.TxManager
	eventPublisher websocket.EventPublisher
}

// NewTeacherPaymentService creates a new TeacherPaymentService
func NewTeacherPaymentService(
	teacherRepo domain.TeacherRepository,
	paymentRepo domain.TeacherPaymentRepository,
	txManager domain.TxManager,
) *TeacherPaymentService {
	return &TeacherPaymentService{
		teacherRepo: teacherRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TeacherPaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *TeacherPaymentService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// Create records a payroll disbursement for a teacher's salary period. When
// the period already has entries, the new entry continues from the latest
// entry's remaining balance: a fully settled period rejects further
// disbursements, and an outstanding one carries its remainder forward minus
// the new paid amount, clamped at zero. The latest entry is locked while the
// decision is made so concurrent disbursements for the same period serialize.
func (s *TeacherPaymentService) Create(input domain.CreateTeacherPaymentInput) (*domain.TeacherPayment, error) {
	if _, err := s.teacherRepo.GetByID(input.TeacherID); err != nil {
		return nil, err
	}

	entry := &domain.TeacherPayment{
		TeacherID:  input.TeacherID,
		Month:      input.Month,
		Year:       input.Year,
		Amount:     input.Amount,
		PaidAmount: input.PaidAmount,
		Note:       input.Note,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.WithinTx(context.Background(), func(tx any) error {
		latest, txErr := s.paymentRepo.GetLatestForPeriodForUpdateTx(tx, input.TeacherID, input.Month, input.Year)
		if txErr != nil && !errors.Is(txErr, domain.ErrTeacherPaymentNotFound) {
			return txErr
		}

		if latest == nil {
			// First entry for the period
			entry.RecomputeBalance()
		} else {
			if latest.RemainingAmount.LessThanOrEqual(decimal.Zero) {
				return domain.ErrPayrollAlreadyPaid
			}
			entry.RemainingAmount = latest.RemainingAmount.Sub(input.PaidAmount)
			if entry.RemainingAmount.IsNegative() {
				entry.RemainingAmount = decimal.Zero
			}
			entry.Status = domain.DeriveSettlementStatus(entry.Amount, entry.RemainingAmount)
		}

		entry, txErr = s.paymentRepo.CreateTx(tx, entry)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.TeacherPaymentCreated(entry))

	return entry, nil
}

// ApplyPayment adds a disbursement to an existing payroll entry and updates
// the note when one is supplied. A payment covering more than the outstanding
// remainder settles the entry with the remaining balance clamped at zero.
func (s *TeacherPaymentService) ApplyPayment(id uuid.UUID, additionalPaid decimal.Decimal, note string) (*domain.TeacherPayment, error) {
	if additionalPaid.IsNegative() {
		return nil, domain.ErrPayrollPaidAmountInvalid
	}

	var entry *domain.TeacherPayment
	err := s.txManager.WithinTx(context.Background(), func(tx any) error {
		var txErr error
		entry, txErr = s.paymentRepo.GetByIDForUpdateTx(tx, id)
		if txErr != nil {
			return txErr
		}

		entry.PaidAmount = entry.PaidAmount.Add(additionalPaid)
		if note != "" {
			entry.Note = note
		}
		entry.RecomputeBalance()

		entry, txErr = s.paymentRepo.UpdateTx(tx, entry)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.TeacherPaymentUpdated(entry))

	return entry, nil
}

// GetByID retrieves a payroll entry by ID
func (s *TeacherPaymentService) GetByID(id uuid.UUID) (*domain.TeacherPayment, error) {
	return s.paymentRepo.GetByID(id)
}

// Search retrieves a filtered page of payroll entries
func (s *TeacherPaymentService) Search(filters *domain.TeacherPaymentFilters) (*domain.PaginatedTeacherPayments, error) {
	filters.Page, filters.PageSize = domain.NormalizePage(filters.Page, filters.PageSize)
	return s.paymentRepo.Search(filters)
}
