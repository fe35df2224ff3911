package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
	"github.com/minhvu/edupay/edupay-backend/internal/testutil"
)

type feeFixture struct {
	classRepo      *testutil.MockClassRepository
	studentRepo    *testutil.MockStudentRepository
	attendanceRepo *testutil.MockAttendanceRepository
	feeRepo        *testutil.MockTuitionFeeRepository
	txManager      *testutil.MockTxManager
	service        *TuitionFeeService

	class   *domain.Class
	student *domain.Student
}

// newFeeFixture sets up a class at 100000 per session meeting Mon/Wed/Fri
// through H1 2026 and a student with a 10% discount in it.
func newFeeFixture() *feeFixture {
	f := &feeFixture{
		classRepo:      testutil.NewMockClassRepository(),
		studentRepo:    testutil.NewMockStudentRepository(),
		attendanceRepo: testutil.NewMockAttendanceRepository(),
		feeRepo:        testutil.NewMockTuitionFeeRepository(),
		txManager:      testutil.NewMockTxManager(),
	}
	f.service = NewTuitionFeeService(f.classRepo, f.studentRepo, f.attendanceRepo, f.feeRepo, f.txManager)

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

// markPresent records a present entry for the fixture student on the given day
func (f *feeFixture) markPresent(day time.Time) {
	f.attendanceRepo.AddRecord(&domain.AttendanceRecord{
		ID:      uuid.New(),
		ClassID: f.class.ID,
		Date:    day,
		Entries: []domain.StudentAttendance{
			{StudentID: f.student.ID, Status: domain.AttendanceStatusPresent},
		},
	})
}

func TestTuitionFeeService_ComputeFee_CreatesLedgerRow(t *testing.T) {
	f := newFeeFixture()

	// 8 present sessions in March 2026
	for _, d := range []int{2, 4, 6, 9, 11, 13, 16, 18} {
		f.markPresent(time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC))
	}

	fee, err := f.service.ComputeFee(f.student.ID, f.class.ID, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// 100000 * 8 * 90% = 720000
	assert.Equal(t, "720000.00", fee.Amount.StringFixed(2))
	assert.Equal(t, "720000.00", fee.RemainingAmount.StringFixed(2))
	assert.Equal(t, "0.00", fee.PaidAmount.StringFixed(2))
	assert.Equal(t, int32(10), fee.DiscountPercent)
	assert.Equal(t, domain.SettlementUnpaid, fee.Status())
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), fee.Period)
	assert.Equal(t, 1, f.txManager.Calls)
}

func TestTuitionFeeService_ComputeFee_RoundsHalfUp(t *testing.T) {
	f := newFeeFixture()
	f.class.UnitPrice = decimal.RequireFromString("33333.33")
	f.student.ClassDiscounts[0].Percent = 7

	for _, d := range []int{2, 4, 6} {
		f.markPresent(time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC))
	}

	fee, err := f.service.ComputeFee(f.student.ID, f.class.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// 33333.33 * 3 * 93% = 92999.9907 -> 92999.99
	assert.Equal(t, "92999.99", fee.Amount.StringFixed(2))
}

func TestTuitionFeeService_ComputeFee_NoAttendanceYieldsZero(t *testing.T) {
	f := newFeeFixture()

	fee, err := f.service.ComputeFee(f.student.ID, f.class.ID, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, fee.Amount.IsZero())
	assert.Equal(t, domain.SettlementPaid, fee.Status())
}

func TestTuitionFeeService_ComputeFee_RecomputePreservesPayments(t *testing.T) {
	f := newFeeFixture()

	for _, d := range []int{2, 4, 6, 9, 11, 13, 16, 18} {
		f.markPresent(time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC))
	}

	fee, err := f.service.ComputeFee(f.student.ID, f.class.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Pay part of it, then add one more present session and recompute
	fee.Settle(decimal.RequireFromString("300000"))
	_, err = f.feeRepo.UpdateTx(nil, fee)
	require.NoError(t, err)

	f.markPresent(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))

	recomputed, err := f.service.ComputeFee(f.student.ID, f.class.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// 100000 * 9 * 90% = 810000; 300000 already paid
	assert.Equal(t, fee.ID, recomputed.ID)
	assert.Equal(t, "810000.00", recomputed.Amount.StringFixed(2))
	assert.Equal(t, "300000.00", recomputed.PaidAmount.StringFixed(2))
	assert.Equal(t, "510000.00", recomputed.RemainingAmount.StringFixed(2))
	assert.Equal(t, domain.SettlementPartiallyPaid, recomputed.Status())
}

func TestTuitionFeeService_ComputeFee_RecomputeClampsRemaining(t *testing.T) {
	f := newFeeFixture()

	for _, d := range []int{2, 4} {
		f.markPresent(time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC))
	}

	fee, err := f.service.ComputeFee(f.student.ID, f.class.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Settle in full, then shrink attendance below what was paid
	fee.Settle(fee.RemainingAmount)
	_, err = f.feeRepo.UpdateTx(nil, fee)
	require.NoError(t, err)

	record, err := f.attendanceRepo.GetByClassAndDate(f.class.ID, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	record.ApplyUpdates([]domain.StudentAttendance{
		{StudentID: f.student.ID, Status: domain.AttendanceStatusAbsent},
	})

	recomputed, err := f.service.ComputeFee(f.student.ID, f.class.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// 100000 * 1 * 90% = 90000 contracted, 180000 already paid
	assert.Equal(t, "90000.00", recomputed.Amount.StringFixed(2))
	assert.Equal(t, "0.00", recomputed.RemainingAmount.StringFixed(2))
	assert.Equal(t, domain.SettlementPaid, recomputed.Status())
}

func TestTuitionFeeService_ComputeFee_UnknownStudent(t *testing.T) {
	f := newFeeFixture()

	_, err := f.service.ComputeFee(uuid.New(), f.class.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)
}

func TestTuitionFeeService_ComputeFee_UnknownClass(t *testing.T) {
	f := newFeeFixture()

	_, err := f.service.ComputeFee(f.student.ID, uuid.New(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrClassNotFound)
}

func TestTuitionFeeService_ComputeFee_NoDiscountDefaultsToFullPrice(t *testing.T) {
	f := newFeeFixture()
	other := &domain.Student{ID: uuid.New(), FullName: "Tran Thi B"}
	f.studentRepo.AddStudent(other)
	f.attendanceRepo.AddRecord(&domain.AttendanceRecord{
		ID:      uuid.New(),
		ClassID: f.class.ID,
		Date:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Entries: []domain.StudentAttendance{
			{StudentID: other.ID, Status: domain.AttendanceStatusPresent},
		},
	})

	fee, err := f.service.ComputeFee(other.ID, f.class.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "100000.00", fee.Amount.StringFixed(2))
	assert.Equal(t, int32(0), fee.DiscountPercent)
}

func TestTuitionFeeService_Search_NormalizesPeriod(t *testing.T) {
	f := newFeeFixture()

	fee := &domain.TuitionFee{
		ID:        uuid.New(),
		StudentID: f.student.ID,
		ClassID:   f.class.ID,
		Period:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("720000"),
	}
	f.feeRepo.AddFee(fee)

	midMonth := time.Date(2026, 3, 17, 12, 0, 0, 0, time.UTC)
	result, err := f.service.Search(&domain.TuitionFeeFilters{Period: &midMonth})
	require.NoError(t, err)

	require.Len(t, result.Data, 1)
	assert.Equal(t, fee.ID, result.Data[0].ID)
}

func TestTuitionFeeService_ComputeFee_RetriesWhenCreateLosesRace(t *testing.T) {
	f := newFeeFixture()
	f.markPresent(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// The first insert collides with a row a concurrent compute committed;
	// the retry must find that row and reprice it instead of failing.
	creates := 0
	f.feeRepo.CreateFn = func(fee *domain.TuitionFee) (*domain.TuitionFee, error) {
		creates++
		f.feeRepo.AddFee(&domain.TuitionFee{
			ID:              uuid.New(),
			StudentID:       f.student.ID,
			ClassID:         f.class.ID,
			Period:          period,
			Amount:          decimal.Zero,
			PaidAmount:      decimal.Zero,
			RemainingAmount: decimal.Zero,
		})
		return nil, domain.ErrTuitionFeeAlreadyExists
	}

	fee, err := f.service.ComputeFee(f.student.ID, f.class.ID, period)
	require.NoError(t, err)

	assert.Equal(t, 1, creates)
	// 100000 * 1 * 90% = 90000
	assert.Equal(t, "90000.00", fee.Amount.StringFixed(2))
	assert.Equal(t, 2, f.txManager.Calls)
}
