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

// TuitionFeeHandler handles tuition fee HTTP requests
type TuitionFeeHandler struct {
	feeService *service.TuitionFeeService
}

// NewTuitionFeeHandler creates a new TuitionFeeHandler
func NewTuitionFeeHandler(feeService *service.TuitionFeeService) *TuitionFeeHandler {
	return &TuitionFeeHandler{
		feeService: feeService,
	}
}

// ComputeFeeRequest represents the JSON request for computing a monthly fee
type ComputeFeeRequest struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	ClassID   string `json:"classId" validate:"required,uuid"`
	Period    string `json:"period" validate:"required"`
}

// TuitionFeeResponse represents the JSON response for a tuition fee
type TuitionFeeResponse struct {
	ID              string `json:"id"`
	StudentID       string `json:"studentId"`
	ClassID         string `json:"classId"`
	Period          string `json:"period"`
	Amount          string `json:"amount"`
	DiscountPercent int32  `json:"discountPercent"`
	PaidAmount      string `json:"paidAmount"`
	RemainingAmount string `json:"remainingAmount"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// PaginatedTuitionFeesResponse is one page of tuition fee search results
type PaginatedTuitionFeesResponse struct {
	Data       []TuitionFeeResponse `json:"data"`
	Page       int32                `json:"page"`
	PageSize   int32                `json:"pageSize"`
	TotalItems int64                `json:"totalItems"`
	TotalPages int32                `json:"totalPages"`
}

func toTuitionFeeResponse(fee *domain.TuitionFee) TuitionFeeResponse {
	return TuitionFeeResponse{
		ID:              fee.ID.String(),
		StudentID:       fee.StudentID.String(),
		ClassID:         fee.ClassID.String(),
		Period:          util.FormatPeriod(fee.Period),
		Amount:          fee.Amount.StringFixed(2),
		DiscountPercent: fee.DiscountPercent,
		PaidAmount:      fee.PaidAmount.StringFixed(2),
		RemainingAmount: fee.RemainingAmount.StringFixed(2),
		Status:          string(fee.Status()),
		CreatedAt:       fee.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       fee.UpdatedAt.Format(time.RFC3339),
	}
}

// Compute creates or recomputes a student's monthly fee for a class
// @Summary Compute tuition fee
// @Description Derives the fee from present sessions in the month, the class unit price and the student's discount. Recomputing preserves payments already applied.
// @Tags tuition-fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ComputeFeeRequest true "Fee computation request"
// @Success 200 {object} TuitionFeeResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /tuition-fees/compute [post]
func (h *TuitionFeeHandler) Compute(c echo.Context) error {
	var req ComputeFeeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	studentID, err := parseUUIDParam(req.StudentID)
	if err != nil {
		return NewValidationError(c, "Invalid studentId", nil)
	}
	classID, err := parseUUIDParam(req.ClassID)
	if err != nil {
		return NewValidationError(c, "Invalid classId", nil)
	}
	period, err := util.ParsePeriod(req.Period)
	if err != nil {
		return NewValidationError(c, "Invalid period format (use YYYY-MM)", nil)
	}

	fee, err := h.feeService.ComputeFee(studentID, classID, period)
	if err != nil {
		log.Error().Err(err).
			Str("student_id", studentID.String()).
			Str("class_id", classID.String()).
			Msg("Failed to compute tuition fee")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toTuitionFeeResponse(fee))
}

// GetByID returns a single tuition fee
// @Summary Get tuition fee
// @Tags tuition-fees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tuition fee ID"
// @Success 200 {object} TuitionFeeResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /tuition-fees/{id} [get]
func (h *TuitionFeeHandler) GetByID(c echo.Context) error {
	id, err := parseUUIDParam(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid tuition fee ID", nil)
	}

	fee, err := h.feeService.GetByID(id)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toTuitionFeeResponse(fee))
}

// Search lists tuition fees with optional filters
// @Summary Search tuition fees
// @Tags tuition-fees
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Filter by student ID"
// @Param classId query string false "Filter by class ID"
// @Param period query string false "Filter by billing month (YYYY-MM)"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Success 200 {object} PaginatedTuitionFeesResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /tuition-fees [get]
func (h *TuitionFeeHandler) Search(c echo.Context) error {
	filters := &domain.TuitionFeeFilters{
		Page:     1,
		PageSize: domain.DefaultPageSize,
	}

	if studentIDStr := c.QueryParam("studentId"); studentIDStr != "" {
		studentID, err := parseUUIDParam(studentIDStr)
		if err != nil {
			return NewValidationError(c, "Invalid studentId", nil)
		}
		filters.StudentID = &studentID
	}
	if classIDStr := c.QueryParam("classId"); classIDStr != "" {
		classID, err := parseUUIDParam(classIDStr)
		if err != nil {
			return NewValidationError(c, "Invalid classId", nil)
		}
		filters.ClassID = &classID
	}
	if periodStr := c.QueryParam("period"); periodStr != "" {
		period, err := util.ParsePeriod(periodStr)
		if err != nil {
			return NewValidationError(c, "Invalid period format (use YYYY-MM)", nil)
		}
		filters.Period = &period
	}
	if err := bindPagination(c, &filters.Page, &filters.PageSize); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	result, err := h.feeService.Search(filters)
	if err != nil {
		log.Error().Err(err).Msg("Failed to search tuition fees")
		return NewInternalError(c, "Failed to search tuition fees")
	}

	data := make([]TuitionFeeResponse, 0, len(result.Data))
	for _, fee := range result.Data {
		data = append(data, toTuitionFeeResponse(fee))
	}

	return c.JSON(http.StatusOK, PaginatedTuitionFeesResponse{
		Data:       data,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// handleServiceError maps domain errors to appropriate HTTP responses
func (h *TuitionFeeHandler) handleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrStudentNotFound):
		return NewNotFoundError(c, "Student not found")
	case errors.Is(err, domain.ErrClassNotFound):
		return NewNotFoundError(c, "Class not found")
	case errors.Is(err, domain.ErrTuitionFeeNotFound):
		return NewNotFoundError(c, "Tuition fee not found")
	default:
		return NewInternalError(c, "Tuition fee operation failed")
	}
}
