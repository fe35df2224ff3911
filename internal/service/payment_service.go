package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
	"github.com/minhvu/edupay/edupay-backend/internal/websocket"
)

// PaymentService reconciles incoming payments against the tuition-fee ledger
type PaymentService struct {
	feeRepo        domain.TuitionFeeRepository
	paymentRepo    domain.PaymentRepository
	txManager      domain.TxManager
	eventPublisher websocket.EventPublisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	feeRepo domain.TuitionFeeRepository,
	paymentRepo domain.PaymentRepository,
	txManager domain.TxManager,
) *PaymentService {
	return &PaymentService{
		feeRepo:     feeRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *PaymentService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// Create records a payment against a tuition fee and settles the fee's
// balance atomically. A payment that meets or exceeds the remaining balance
// settles the fee in full; the excess is discarded and the payment records
// only the credited amount. The fee row is locked for the duration of the
// transaction so concurrent payments against the same fee serialize.
func (s *PaymentService) Create(tuitionFeeID uuid.UUID, amount decimal.Decimal) (*domain.Payment, *domain.TuitionFee, error) {
	if !amount.IsPositive() {
		return nil, nil, domain.ErrPaymentAmountInvalid
	}

	var payment *domain.Payment
	var fee *domain.TuitionFee
	err := s.txManager.WithinTx(context.Background(), func(tx any) error {
		var txErr error
		fee, txErr = s.feeRepo.GetByIDForUpdateTx(tx, tuitionFeeID)
		if txErr != nil {
			return txErr
		}
		if fee.Settled() {
			return domain.ErrFeeAlreadySettled
		}

		credited := amount
		if credited.GreaterThan(fee.RemainingAmount) {
			credited = fee.RemainingAmount
		}

		fee.Settle(amount)

		payment = &domain.Payment{
			TuitionFeeID: fee.ID,
			PaidAmount:   credited,
		}
		payment, txErr = s.paymentRepo.CreateTx(tx, payment)
		if txErr != nil {
			return txErr
		}

		fee, txErr = s.feeRepo.UpdateTx(tx, fee)
		return txErr
	})
	if err != nil {
		return nil, nil, err
	}

	s.publishEvent(websocket.PaymentCreated(payment))
	s.publishEvent(websocket.TuitionFeeRecomputed(fee))

	return payment, fee, nil
}

// GetByID retrieves a payment by ID
func (s *PaymentService) GetByID(id uuid.UUID) (*domain.Payment, error) {
	return s.paymentRepo.GetByID(id)
}

// ListByStudent retrieves a page of a student's payment history, optionally
// narrowed to one class, newest first.
func (s *PaymentService) ListByStudent(filters *domain.PaymentFilters) (*domain.PaginatedPayments, error) {
	filters.Page, filters.PageSize = domain.NormalizePage(filters.Page, filters.PageSize)
	return s.paymentRepo.ListByStudent(filters)
}
