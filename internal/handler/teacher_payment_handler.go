package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/minhvu/edupay/edupay-backend/internal/domain"
	"github.com/minhvu/edupay/edupay-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TeacherPaymentHandler handles payroll HTTP requests
type TeacherPaymentHandler struct {
	payrollService *service.TeacherPaymentService
}

// NewTeacherPaymentHandler creates a new TeacherPaymentHandler
func NewTeacherPaymentHandler(payrollService *service.TeacherPaymentService) *TeacherPaymentHandler {
	return &TeacherPaymentHandler{
		payrollService: payrollService,
	}
}

// TeacherPaymentRequest represents the JSON request for creating a payroll entry
type TeacherPaymentRequest struct {
	TeacherID  string `json:"teacherId" validate:"required,uuid"`
	Month      int32  `json:"month" validate:"required,min=1,max=12"`
	Year       int32  `json:"year" validate:"required,min=2000"`
	Amount     string `json:"amount" validate:"required"`
	PaidAmount string `json:"paidAmount,omitempty"`
	Note       string `json:"note,omitempty"`
}

// PayrollPaymentRequest represents the JSON request for applying a payment
// to an existing payroll entry
type PayrollPaymentRequest struct {
	Amount string `json:"amount" validate:"required"`
	Note   string `json:"note,omitempty"`
}

// TeacherPaymentResponse represents the JSON response for a payroll entry
type TeacherPaymentResponse struct {
	ID              string `json:"id"`
	TeacherID       string `json:"teacherId"`
	Month           int32  `json:"month"`
	Year            int32  `json:"year"`
	Amount          string `json:"amount"`
	PaidAmount      string `json:"paidAmount"`
	RemainingAmount string `json:"remainingAmount"`
	Status          string `json:"status"`
	Note            string `json:"note,omitempty"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// PaginatedTeacherPaymentsResponse is one page of payroll search results
type PaginatedTeacherPaymentsResponse struct {
	Data       []TeacherPaymentResponse `json:"data"`
	Page       int32                    `json:"page"`
	PageSize   int32                    `json:"pageSize"`
	TotalItems int64                    `json:"totalItems"`
	TotalPages int32                    `json:"totalPages"`
}

func toTeacherPaymentResponse(entry *domain.TeacherPayment) TeacherPaymentResponse {
	return TeacherPaymentResponse{
		ID:              entry.ID.String(),
		TeacherID:       entry.TeacherID.String(),
		Month:           entry.Month,
		Year:            entry.Year,
		Amount:          entry.Amount.StringFixed(2),
		PaidAmount:      entry.PaidAmount.StringFixed(2),
		RemainingAmount: entry.RemainingAmount.StringFixed(2),
		Status:          string(entry.Status),
		Note:            entry.Note,
		CreatedAt:       entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       entry.UpdatedAt.Format(time.RFC3339),
	}
}

// Create records a payroll entry for a teacher's month
// @Summary Create payroll entry
// @Description Records a payment toward a teacher's monthly contract. Later entries for the same month continue from the previous remaining balance.
// @Tags teacher-payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TeacherPaymentRequest true "Payroll entry request"
// @Success 201 {object} TeacherPaymentResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /teacher-payments [post]
func (h *TeacherPaymentHandler) Create(c echo.Context) error {
	var req TeacherPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	teacherID, err := parseUUIDParam(req.TeacherID)
	if err != nil {
		return NewValidationError(c, "Invalid teacherId", nil)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", nil)
	}
	paidAmount := decimal.Zero
	if req.PaidAmount != "" {
		paidAmount, err = decimal.NewFromString(req.PaidAmount)
		if err != nil {
			return NewValidationError(c, "Invalid paidAmount", nil)
		}
	}

	entry, err := h.payrollService.Create(domain.CreateTeacherPaymentInput{
		TeacherID:  teacherID,
		Month:      req.Month,
		Year:       req.Year,
		Amount:     amount,
		PaidAmount: paidAmount,
		Note:       req.Note,
	})
	if err != nil {
		log.Error().Err(err).
			Str("teacher_id", teacherID.String()).
			Int32("month", req.Month).
			Int32("year", req.Year).
			Msg("Failed to create payroll entry")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, toTeacherPaymentResponse(entry))
}

// ApplyPayment applies a payment to an existing payroll entry
// @Summary Apply payroll payment
// @Description Adds the amount to the entry's paid total and rederives its remaining balance and settlement status. A payment covering the remainder settles the entry.
// @Tags teacher-payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payroll entry ID"
// @Param request body PayrollPaymentRequest true "Payroll payment"
// @Success 200 {object} TeacherPaymentResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /teacher-payments/{id}/payments [post]
func (h *TeacherPaymentHandler) ApplyPayment(c echo.Context) error {
	id, err := parseUUIDParam(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid payroll entry ID", nil)
	}

	var req PayrollPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", nil)
	}

	entry, err := h.payrollService.ApplyPayment(id, amount, req.Note)
	if err != nil {
		log.Error().Err(err).Str("entry_id", id.String()).Msg("Failed to apply payroll payment")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toTeacherPaymentResponse(entry))
}

// GetByID returns a single payroll entry
// @Summary Get payroll entry
// @Tags teacher-payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payroll entry ID"
// @Success 200 {object} TeacherPaymentResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /teacher-payments/{id} [get]
func (h *TeacherPaymentHandler) GetByID(c echo.Context) error {
	id, err := parseUUIDParam(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid payroll entry ID", nil)
	}

	entry, err := h.payrollService.GetByID(id)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toTeacherPaymentResponse(entry))
}

// Search lists payroll entries with optional filters
// @Summary Search payroll entries
// @Tags teacher-payments
// @Produce json
// @Security BearerAuth
// @Param teacherId query string false "Filter by teacher ID"
// @Param month query int false "Filter by month (requires year)"
// @Param year query int false "Filter by year"
// @Param status query string false "Filter by settlement status"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Success 200 {object} PaginatedTeacherPaymentsResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /teacher-payments [get]
func (h *TeacherPaymentHandler) Search(c echo.Context) error {
	filters := &domain.TeacherPaymentFilters{
		Page:     1,
		PageSize: domain.DefaultPageSize,
	}

	if teacherIDStr := c.QueryParam("teacherId"); teacherIDStr != "" {
		teacherID, err := parseUUIDParam(teacherIDStr)
		if err != nil {
			return NewValidationError(c, "Invalid teacherId", nil)
		}
		filters.TeacherID = &teacherID
	}
	if monthStr := c.QueryParam("month"); monthStr != "" {
		var month int32
		if err := parseInt32Param(monthStr, &month); err != nil || month < 1 || month > 12 {
			return NewValidationError(c, "Invalid month (must be 1-12)", nil)
		}
		filters.Month = &month
	}
	if yearStr := c.QueryParam("year"); yearStr != "" {
		var year int32
		if err := parseInt32Param(yearStr, &year); err != nil || year < 2000 {
			return NewValidationError(c, "Invalid year", nil)
		}
		filters.Year = &year
	}
	if statusStr := c.QueryParam("status"); statusStr != "" {
		status := domain.SettlementStatus(statusStr)
		switch status {
		case domain.SettlementUnpaid, domain.SettlementPartiallyPaid, domain.SettlementPaid:
			filters.Status = &status
		default:
			return NewValidationError(c, "Invalid status", nil)
		}
	}
	if err := bindPagination(c, &filters.Page, &filters.PageSize); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	result, err := h.payrollService.Search(filters)
	if err != nil {
		log.Error().Err(err).Msg("Failed to search payroll entries")
		return NewInternalError(c, "Failed to search payroll entries")
	}

	data := make([]TeacherPaymentResponse, 0, len(result.Data))
	for _, entry := range result.Data {
		data = append(data, toTeacherPaymentResponse(entry))
	}

	return c.JSON(http.StatusOK, PaginatedTeacherPaymentsResponse{
		Data:       data,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// handleServiceError maps domain errors to appropriate HTTP responses
func (h *TeacherPaymentHandler) handleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrTeacherNotFound):
		return NewNotFoundError(c, "Teacher not found")
	case errors.Is(err, domain.ErrTeacherPaymentNotFound):
		return NewNotFoundError(c, "Payroll entry not found")
	case errors.Is(err, domain.ErrPayrollAlreadyPaid):
		return NewConflictError(c, "Teacher's contract for this month is already settled")
	case errors.Is(err, domain.ErrPayrollMonthInvalid):
		return NewValidationError(c, "Month must be between 1 and 12", nil)
	case errors.Is(err, domain.ErrPayrollAmountInvalid):
		return NewValidationError(c, "Contract amount must be positive", nil)
	case errors.Is(err, domain.ErrPayrollPaidAmountInvalid):
		return NewValidationError(c, "Paid amount must not be negative", nil)
	case errors.Is(err, domain.ErrPayrollPaidExceedsContract):
		return NewValidationError(c, "Paid amount must not exceed the contract amount", nil)
	default:
		return NewInternalError(c, "Payroll operation failed")
	}
}
