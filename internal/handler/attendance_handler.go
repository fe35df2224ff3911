package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/minhvu/edupay/edupay-backend/internal/domain"
	"github.com/minhvu/edupay/edupay-backend/internal/service"
	"github.com/minhvu/edupay/edupay-backend/internal/util"
	"github.com/rs/zerolog/log"
)

// AttendanceHandler handles attendance HTTP requests
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
	}
}

// CreateSheetRequest represents the JSON request for opening a class day sheet
type CreateSheetRequest struct {
	ClassID string `json:"classId" validate:"required,uuid"`
	Date    string `json:"date,omitempty"`
}

// SetPresenceRequest represents the JSON request for patching presence entries
type SetPresenceRequest struct {
	Updates []PresenceUpdate `json:"updates" validate:"required,min=1,dive"`
}

// PresenceUpdate is one student's presence change within a patch
type PresenceUpdate struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	Status    string `json:"status" validate:"required"`
	Note      string `json:"note,omitempty"`
}

// AttendanceEntryResponse is one student's entry on a sheet
type AttendanceEntryResponse struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
}

// AttendanceResponse represents the JSON response for an attendance sheet
type AttendanceResponse struct {
	ID        string                    `json:"id"`
	ClassID   string                    `json:"classId"`
	Date      string                    `json:"date"`
	Entries   []AttendanceEntryResponse `json:"entries"`
	CreatedAt string                    `json:"createdAt"`
	UpdatedAt string                    `json:"updatedAt"`
}

// PaginatedAttendanceResponse is one page of attendance search results
type PaginatedAttendanceResponse struct {
	Data       []AttendanceResponse `json:"data"`
	Page       int32                `json:"page"`
	PageSize   int32                `json:"pageSize"`
	TotalItems int64                `json:"totalItems"`
	TotalPages int32                `json:"totalPages"`
}

// PresentCountResponse reports a student's billable session count for a month
type PresentCountResponse struct {
	StudentID       string `json:"studentId"`
	ClassID         string `json:"classId"`
	Period          string `json:"period"`
	PresentSessions int    `json:"presentSessions"`
}

func toAttendanceResponse(record *domain.AttendanceRecord) AttendanceResponse {
	entries := make([]AttendanceEntryResponse, 0, len(record.Entries))
	for _, e := range record.Entries {
		entries = append(entries, AttendanceEntryResponse{
			StudentID: e.StudentID.String(),
			Status:    string(e.Status),
			Note:      e.Note,
		})
	}
	return AttendanceResponse{
		ID:        record.ID.String(),
		ClassID:   record.ClassID.String(),
		Date:      record.Date.Format("2006-01-02"),
		Entries:   entries,
		CreatedAt: record.CreatedAt.Format(time.RFC3339),
		UpdatedAt: record.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateSheet opens (or returns) the attendance sheet for a class day
// @Summary Open attendance sheet
// @Description Returns the sheet for the class and date, creating it with every enrolled student marked absent when none exists. Date defaults to today.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSheetRequest true "Sheet request"
// @Success 200 {object} AttendanceResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /attendance/sheets [post]
func (h *AttendanceHandler) CreateSheet(c echo.Context) error {
	var req CreateSheetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	classID, err := parseUUIDParam(req.ClassID)
	if err != nil {
		return NewValidationError(c, "Invalid classId", nil)
	}

	var record *domain.AttendanceRecord
	if req.Date == "" {
		record, err = h.attendanceService.GetOrCreateToday(classID)
	} else {
		var date time.Time
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date format (use YYYY-MM-DD)", nil)
		}
		record, err = h.attendanceService.GetOrCreateForDate(classID, date)
	}
	if err != nil {
		log.Error().Err(err).Str("class_id", classID.String()).Msg("Failed to open attendance sheet")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toAttendanceResponse(record))
}

// SetPresence patches presence entries on an attendance sheet
// @Summary Update presence
// @Description Replaces the listed students' statuses on the sheet and recomputes the affected tuition fees in the same transaction
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attendance record ID"
// @Param request body SetPresenceRequest true "Presence updates"
// @Success 200 {object} AttendanceResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /attendance/{id}/presence [patch]
func (h *AttendanceHandler) SetPresence(c echo.Context) error {
	id, err := parseUUIDParam(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid attendance record ID", nil)
	}

	var req SetPresenceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	updates := make([]domain.StudentAttendance, 0, len(req.Updates))
	for _, u := range req.Updates {
		studentID, err := parseUUIDParam(u.StudentID)
		if err != nil {
			return NewValidationError(c, "Invalid studentId in updates", nil)
		}
		updates = append(updates, domain.StudentAttendance{
			StudentID: studentID,
			Status:    domain.AttendanceStatus(u.Status),
			Note:      u.Note,
		})
	}

	record, err := h.attendanceService.SetPresence(id, updates)
	if err != nil {
		log.Error().Err(err).Str("attendance_id", id.String()).Msg("Failed to update presence")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toAttendanceResponse(record))
}

// GetByID returns a single attendance sheet
// @Summary Get attendance record
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attendance record ID"
// @Success 200 {object} AttendanceResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /attendance/{id} [get]
func (h *AttendanceHandler) GetByID(c echo.Context) error {
	id, err := parseUUIDParam(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid attendance record ID", nil)
	}

	record, err := h.attendanceService.GetByID(id)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toAttendanceResponse(record))
}

// Search lists attendance sheets with optional filters
// @Summary Search attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param classId query string false "Filter by class ID"
// @Param studentId query string false "Filter by student ID"
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Success 200 {object} PaginatedAttendanceResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /attendance [get]
func (h *AttendanceHandler) Search(c echo.Context) error {
	filters := &domain.AttendanceFilters{
		Page:     1,
		PageSize: domain.DefaultPageSize,
	}

	if classIDStr := c.QueryParam("classId"); classIDStr != "" {
		classID, err := parseUUIDParam(classIDStr)
		if err != nil {
			return NewValidationError(c, "Invalid classId", nil)
		}
		filters.ClassID = &classID
	}
	if studentIDStr := c.QueryParam("studentId"); studentIDStr != "" {
		studentID, err := parseUUIDParam(studentIDStr)
		if err != nil {
			return NewValidationError(c, "Invalid studentId", nil)
		}
		filters.StudentID = &studentID
	}
	if dateStr := c.QueryParam("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return NewValidationError(c, "Invalid date format (use YYYY-MM-DD)", nil)
		}
		filters.Date = &parsed
	}
	if err := bindPagination(c, &filters.Page, &filters.PageSize); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	result, err := h.attendanceService.Search(filters)
	if err != nil {
		log.Error().Err(err).Msg("Failed to search attendance")
		return NewInternalError(c, "Failed to search attendance")
	}

	data := make([]AttendanceResponse, 0, len(result.Data))
	for _, record := range result.Data {
		data = append(data, toAttendanceResponse(record))
	}

	return c.JSON(http.StatusOK, PaginatedAttendanceResponse{
		Data:       data,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// PresentCount returns a student's billable session count for a month
// @Summary Count present sessions
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param studentId query string true "Student ID"
// @Param classId query string true "Class ID"
// @Param period query string true "Billing month (YYYY-MM)"
// @Success 200 {object} PresentCountResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /attendance/present-count [get]
func (h *AttendanceHandler) PresentCount(c echo.Context) error {
	studentID, err := parseUUIDParam(c.QueryParam("studentId"))
	if err != nil {
		return NewValidationError(c, "Invalid studentId", nil)
	}
	classID, err := parseUUIDParam(c.QueryParam("classId"))
	if err != nil {
		return NewValidationError(c, "Invalid classId", nil)
	}
	period, err := util.ParsePeriod(c.QueryParam("period"))
	if err != nil {
		return NewValidationError(c, "Invalid period format (use YYYY-MM)", nil)
	}

	count, err := h.attendanceService.CountPresentSessions(studentID, classID, period)
	if err != nil {
		log.Error().Err(err).Str("student_id", studentID.String()).Msg("Failed to count present sessions")
		return NewInternalError(c, "Failed to count present sessions")
	}

	return c.JSON(http.StatusOK, PresentCountResponse{
		StudentID:       studentID.String(),
		ClassID:         classID.String(),
		Period:          util.FormatPeriod(period),
		PresentSessions: count,
	})
}

// handleServiceError maps domain errors to appropriate HTTP responses
func (h *AttendanceHandler) handleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrClassNotFound):
		return NewNotFoundError(c, "Class not found")
	case errors.Is(err, domain.ErrAttendanceNotFound):
		return NewNotFoundError(c, "Attendance record not found")
	case errors.Is(err, domain.ErrClassNotScheduledToday):
		return NewUnprocessableError(c, "Class has no session scheduled on that weekday")
	case errors.Is(err, domain.ErrDateOutsideClassPeriod):
		return NewUnprocessableError(c, "Date is outside the class teaching period")
	case errors.Is(err, domain.ErrStudentNotFound):
		return NewNotFoundError(c, "Student not found")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid presence updates", nil)
	default:
		return NewInternalError(c, "Attendance operation failed")
	}
}
