package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
	"github.com/minhvu/edupay/edupay-backend/internal/service"
	"github.com/minhvu/edupay/edupay-backend/internal/testutil"
)

type attendanceHandlerFixture struct {
	*feeHandlerFixture
	attendanceService *service.AttendanceService
	handler           *AttendanceHandler
}

func newAttendanceHandlerFixture() *attendanceHandlerFixture {
	base := newFeeHandlerFixture()
	feeService := service.NewTuitionFeeService(base.classRepo, base.studentRepo, base.attendanceRepo, base.feeRepo, testutil.NewMockTxManager())
	attendanceService := service.NewAttendanceService(base.classRepo, base.attendanceRepo, feeService, testutil.NewMockTxManager())
	return &attendanceHandlerFixture{
		feeHandlerFixture: base,
		attendanceService: attendanceService,
		handler:           NewAttendanceHandler(attendanceService),
	}
}

func TestAttendanceHandler_CreateSheet_CreatesRoster(t *testing.T) {
	f := newAttendanceHandlerFixture()

	// Wednesday within the class period
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/attendance/sheets", CreateSheetRequest{
		ClassID: f.class.ID.String(),
		Date:    "2026-03-04",
	})

	if err := f.handler.CreateSheet(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp AttendanceResponse
	decodeResponse(t, rec, &resp)
	if resp.Date != "2026-03-04" {
		t.Errorf("expected date 2026-03-04, got %s", resp.Date)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 roster entry, got %d", len(resp.Entries))
	}
	if resp.Entries[0].Status != string(domain.AttendanceStatusAbsent) {
		t.Errorf("expected default status ABSENT, got %s", resp.Entries[0].Status)
	}
}

func TestAttendanceHandler_CreateSheet_UnscheduledWeekday(t *testing.T) {
	f := newAttendanceHandlerFixture()

	// Tuesday is not on the class schedule
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/attendance/sheets", CreateSheetRequest{
		ClassID: f.class.ID.String(),
		Date:    "2026-03-03",
	})

	if err := f.handler.CreateSheet(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestAttendanceHandler_CreateSheet_InvalidBody(t *testing.T) {
	f := newAttendanceHandlerFixture()

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/attendance/sheets", CreateSheetRequest{
		ClassID: "not-a-uuid",
	})

	if err := f.handler.CreateSheet(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestAttendanceHandler_SetPresence_UpdatesEntries(t *testing.T) {
	f := newAttendanceHandlerFixture()
	record := &domain.AttendanceRecord{
		ID:      uuid.New(),
		ClassID: f.class.ID,
		Date:    time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Entries: []domain.StudentAttendance{
			{StudentID: f.student.ID, Status: domain.AttendanceStatusAbsent},
		},
	}
	f.attendanceRepo.AddRecord(record)

	c, rec := newTestContext(t, http.MethodPatch, "/api/v1/attendance/"+record.ID.String()+"/presence", SetPresenceRequest{
		Updates: []PresenceUpdate{
			{StudentID: f.student.ID.String(), Status: string(domain.AttendanceStatusPresent), Note: "late 10m"},
		},
	})
	c.SetParamNames("id")
	c.SetParamValues(record.ID.String())

	if err := f.handler.SetPresence(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp AttendanceResponse
	decodeResponse(t, rec, &resp)
	if resp.Entries[0].Status != string(domain.AttendanceStatusPresent) {
		t.Errorf("expected status PRESENT, got %s", resp.Entries[0].Status)
	}
	if resp.Entries[0].Note != "late 10m" {
		t.Errorf("expected note to round-trip, got %q", resp.Entries[0].Note)
	}
}

func TestAttendanceHandler_SetPresence_UnknownRecord(t *testing.T) {
	f := newAttendanceHandlerFixture()

	id := uuid.New()
	c, rec := newTestContext(t, http.MethodPatch, "/api/v1/attendance/"+id.String()+"/presence", SetPresenceRequest{
		Updates: []PresenceUpdate{
			{StudentID: f.student.ID.String(), Status: string(domain.AttendanceStatusPresent)},
		},
	})
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := f.handler.SetPresence(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestAttendanceHandler_SetPresence_EmptyUpdates(t *testing.T) {
	f := newAttendanceHandlerFixture()

	id := uuid.New()
	c, rec := newTestContext(t, http.MethodPatch, "/api/v1/attendance/"+id.String()+"/presence", SetPresenceRequest{})
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := f.handler.SetPresence(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestAttendanceHandler_PresentCount(t *testing.T) {
	f := newAttendanceHandlerFixture()
	f.markPresent(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	f.markPresent(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/attendance/present-count", nil)
	c.QueryParams().Set("studentId", f.student.ID.String())
	c.QueryParams().Set("classId", f.class.ID.String())
	c.QueryParams().Set("period", "2026-03")

	if err := f.handler.PresentCount(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp PresentCountResponse
	decodeResponse(t, rec, &resp)
	if resp.PresentSessions != 2 {
		t.Errorf("expected 2 present sessions, got %d", resp.PresentSessions)
	}
	if resp.Period != "2026-03" {
		t.Errorf("expected period 2026-03, got %s", resp.Period)
	}
}
