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

type feeHandlerFixture struct {
	classRepo      *testutil.MockClassRepository
	studentRepo    *testutil.MockStudentRepository
	attendanceRepo *testutil.MockAttendanceRepository
	feeRepo        *testutil.MockTuitionFeeRepository
	handler        *TuitionFeeHandler

	class   *domain.Class
	student *domain.Student
}

func newFeeHandlerFixture() *feeHandlerFixture {
	f := &feeHandlerFixture{
		classRepo:      testutil.NewMockClassRepository(),
		studentRepo:    testutil.NewMockStudentRepository(),
		attendanceRepo: testutil.NewMockAttendanceRepository(),
		feeRepo:        testutil.NewMockTuitionFeeRepository(),
	}
	feeService := service.NewTuitionFeeService(f.classRepo, f.studentRepo, f.attendanceRepo, f.feeRepo, testutil.NewMockTxManager())
	f.handler = NewTuitionFeeHandler(feeService)

	f.class = &domain.Class{
		ID:                uuid.New(),
		Name:              "Math 9A",
		UnitPrice:         decimal.RequireFromString("100000"),
		StartDate:         time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		ScheduledWeekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		Status:            domain.ClassStatusOpen,
	}
	f.student = &domain.Student{
		ID:       uuid.New(),
		FullName: "Nguyen Van A",
		ClassDiscounts: []domain.ClassDiscount{
			{ClassID: f.class.ID, Percent: 10},
		},
	}
	f.class.EnrolledStudentIDs = []uuid.UUID{f.student.ID}
	f.classRepo.AddClass(f.class)
	f.studentRepo.AddStudent(f.student)
	return f
}

func (f *feeHandlerFixture) markPresent(day time.Time) {
	f.attendanceRepo.AddRecord(&domain.AttendanceRecord{
		ID:      uuid.New(),
		ClassID: f.class.ID,
		Date:    day,
		Entries: []domain.StudentAttendance{
			{StudentID: f.student.ID, Status: domain.AttendanceStatusPresent},
		},
	})
}

func TestTuitionFeeHandler_Compute_Success(t *testing.T) {
	f := newFeeHandlerFixture()
	for _, d := range []int{2, 4, 6, 9, 11, 13, 16, 18} {
		f.markPresent(time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC))
	}

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/tuition-fees/compute", ComputeFeeRequest{
		StudentID: f.student.ID.String(),
		ClassID:   f.class.ID.String(),
		Period:    "2026-03",
	})

	if err := f.handler.Compute(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp TuitionFeeResponse
	decodeResponse(t, rec, &resp)
	if resp.Amount != "720000.00" {
		t.Errorf("expected amount 720000.00, got %s", resp.Amount)
	}
	if resp.Period != "2026-03" {
		t.Errorf("expected period 2026-03, got %s", resp.Period)
	}
	if resp.DiscountPercent != 10 {
		t.Errorf("expected discount 10, got %d", resp.DiscountPercent)
	}
	if resp.Status != string(domain.SettlementUnpaid) {
		t.Errorf("expected status %s, got %s", domain.SettlementUnpaid, resp.Status)
	}
}

func TestTuitionFeeHandler_Compute_InvalidPeriod(t *testing.T) {
	f := newFeeHandlerFixture()

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/tuition-fees/compute", ComputeFeeRequest{
		StudentID: f.student.ID.String(),
		ClassID:   f.class.ID.String(),
		Period:    "March 2026",
	})

	if err := f.handler.Compute(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestTuitionFeeHandler_Compute_UnknownClass(t *testing.T) {
	f := newFeeHandlerFixture()

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/tuition-fees/compute", ComputeFeeRequest{
		StudentID: f.student.ID.String(),
		ClassID:   uuid.New().String(),
		Period:    "2026-03",
	})

	if err := f.handler.Compute(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestTuitionFeeHandler_GetByID_NotFound(t *testing.T) {
	f := newFeeHandlerFixture()

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/tuition-fees/"+uuid.New().String(), nil)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := f.handler.GetByID(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestTuitionFeeHandler_Search_FiltersByStudent(t *testing.T) {
	f := newFeeHandlerFixture()
	f.feeRepo.AddFee(&domain.TuitionFee{
		ID:        uuid.New(),
		StudentID: f.student.ID,
		ClassID:   f.class.ID,
		Period:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("720000"),
	})
	f.feeRepo.AddFee(&domain.TuitionFee{
		ID:        uuid.New(),
		StudentID: uuid.New(),
		ClassID:   f.class.ID,
		Period:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("500000"),
	})

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/tuition-fees", nil)
	c.QueryParams().Set("studentId", f.student.ID.String())

	if err := f.handler.Search(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp PaginatedTuitionFeesResponse
	decodeResponse(t, rec, &resp)
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 fee, got %d", len(resp.Data))
	}
	if resp.Data[0].StudentID != f.student.ID.String() {
		t.Errorf("expected fee for student %s, got %s", f.student.ID, resp.Data[0].StudentID)
	}
}
