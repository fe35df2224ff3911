package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
	"github.com/minhvu/edupay/edupay-backend/internal/service"
	"github.com/minhvu/edupay/edupay-backend/internal/testutil"
)

type paymentHandlerFixture struct {
	feeRepo     *testutil.MockTuitionFeeRepository
	paymentRepo *testutil.MockPaymentRepository
	handler     *PaymentHandler
}

func newPaymentHandlerFixture() *paymentHandlerFixture {
	f := &paymentHandlerFixture{
		feeRepo:     testutil.NewMockTuitionFeeRepository(),
		paymentRepo: testutil.NewMockPaymentRepository(),
	}
	paymentService := service.NewPaymentService(f.feeRepo, f.paymentRepo, testutil.NewMockTxManager())
	f.handler = NewPaymentHandler(paymentService)
	return f
}

// openFee seeds an unpaid 720000 fee with a 420000 remaining balance already
// reduced by an earlier 300000 payment
func (f *paymentHandlerFixture) openFee() *domain.TuitionFee {
	fee := &domain.TuitionFee{
		ID:              uuid.New(),
		StudentID:       uuid.New(),
		ClassID:         uuid.New(),
		Period:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:          decimal.RequireFromString("720000"),
		PaidAmount:      decimal.RequireFromString("300000"),
		RemainingAmount: decimal.RequireFromString("420000"),
	}
	f.feeRepo.AddFee(fee)
	return fee
}

func TestPaymentHandler_Create_PartialPayment(t *testing.T) {
	f := newPaymentHandlerFixture()
	fee := f.openFee()

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/payments", PaymentRequest{
		TuitionFeeID: fee.ID.String(),
		Amount:       "120000",
	})

	if err := f.handler.Create(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	var resp PaymentResultResponse
	decodeResponse(t, rec, &resp)
	if resp.Payment.PaidAmount != "120000.00" {
		t.Errorf("expected payment of 120000.00, got %s", resp.Payment.PaidAmount)
	}
	if resp.TuitionFee.RemainingAmount != "300000.00" {
		t.Errorf("expected remaining 300000.00, got %s", resp.TuitionFee.RemainingAmount)
	}
	if resp.TuitionFee.Status != string(domain.SettlementPartiallyPaid) {
		t.Errorf("expected status PARTIALLY_PAID, got %s", resp.TuitionFee.Status)
	}
}

func TestPaymentHandler_Create_OverpaymentCreditsRemainingOnly(t *testing.T) {
	f := newPaymentHandlerFixture()
	fee := f.openFee()

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/payments", PaymentRequest{
		TuitionFeeID: fee.ID.String(),
		Amount:       "500000",
	})

	if err := f.handler.Create(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	var resp PaymentResultResponse
	decodeResponse(t, rec, &resp)
	if resp.Payment.PaidAmount != "420000.00" {
		t.Errorf("expected credited amount 420000.00, got %s", resp.Payment.PaidAmount)
	}
	if resp.TuitionFee.Status != string(domain.SettlementPaid) {
		t.Errorf("expected status PAID, got %s", resp.TuitionFee.Status)
	}
	if resp.TuitionFee.RemainingAmount != "0.00" {
		t.Errorf("expected remaining 0.00, got %s", resp.TuitionFee.RemainingAmount)
	}
}

func TestPaymentHandler_Create_NonPositiveAmount(t *testing.T) {
	f := newPaymentHandlerFixture()
	fee := f.openFee()

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/payments", PaymentRequest{
		TuitionFeeID: fee.ID.String(),
		Amount:       "-50",
	})

	if err := f.handler.Create(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestPaymentHandler_Create_SettledFee(t *testing.T) {
	f := newPaymentHandlerFixture()
	fee := &domain.TuitionFee{
		ID:              uuid.New(),
		StudentID:       uuid.New(),
		ClassID:         uuid.New(),
		Period:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:          decimal.RequireFromString("720000"),
		PaidAmount:      decimal.RequireFromString("720000"),
		RemainingAmount: decimal.Zero,
	}
	f.feeRepo.AddFee(fee)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/payments", PaymentRequest{
		TuitionFeeID: fee.ID.String(),
		Amount:       "100000",
	})

	if err := f.handler.Create(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestPaymentHandler_Create_UnknownFee(t *testing.T) {
	f := newPaymentHandlerFixture()

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/payments", PaymentRequest{
		TuitionFeeID: uuid.New().String(),
		Amount:       "100000",
	})

	if err := f.handler.Create(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestPaymentHandler_ListByStudent(t *testing.T) {
	f := newPaymentHandlerFixture()
	fee := f.openFee()
	f.paymentRepo.LinkFee(fee.ID, fee.StudentID, fee.ClassID)
	f.paymentRepo.AddPayment(&domain.Payment{
		ID:           uuid.New(),
		TuitionFeeID: fee.ID,
		PaidAmount:   decimal.RequireFromString("300000"),
		CreatedAt:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/payments", nil)
	c.QueryParams().Set("studentId", fee.StudentID.String())

	if err := f.handler.ListByStudent(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp PaginatedPaymentsResponse
	decodeResponse(t, rec, &resp)
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(resp.Data))
	}
	if resp.Data[0].PaidAmount != "300000.00" {
		t.Errorf("expected paid amount 300000.00, got %s", resp.Data[0].PaidAmount)
	}
}
