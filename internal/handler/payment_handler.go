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

// PaymentHandler handles tuition payment HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// PaymentRequest represents the JSON request for recording a payment
type PaymentRequest struct {
	TuitionFeeID string `json:"tuitionFeeId" validate:"required,uuid"`
	Amount       string `json:"amount" validate:"required"`
}

// PaymentResponse represents the JSON response for a recorded payment
type PaymentResponse struct {
	ID           string `json:"id"`
	TuitionFeeID string `json:"tuitionFeeId"`
	PaidAmount   string `json:"paidAmount"`
	CreatedAt    string `json:"createdAt"`
}

// PaymentResultResponse pairs a recorded payment with the fee it settled against
type PaymentResultResponse struct {
	Payment    PaymentResponse    `json:"payment"`
	TuitionFee TuitionFeeResponse `json:"tuitionFee"`
}

// PaginatedPaymentsResponse is one page of a student's payment history
type PaginatedPaymentsResponse struct {
	Data       []PaymentResponse `json:"data"`
	Page       int32             `json:"page"`
	PageSize   int32             `json:"pageSize"`
	TotalItems int64             `json:"totalItems"`
	TotalPages int32             `json:"totalPages"`
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           payment.ID.String(),
		TuitionFeeID: payment.TuitionFeeID.String(),
		PaidAmount:   payment.PaidAmount.StringFixed(2),
		CreatedAt:    payment.CreatedAt.Format(time.RFC3339),
	}
}

// Create records a payment against a tuition fee
// @Summary Record payment
// @Description Applies the amount to the fee's remaining balance. Amounts at or above the remaining balance settle the fee; only the credited amount is recorded.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PaymentRequest true "Payment request"
// @Success 201 {object} PaymentResultResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /payments [post]
func (h *PaymentHandler) Create(c echo.Context) error {
	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	tuitionFeeID, err := parseUUIDParam(req.TuitionFeeID)
	if err != nil {
		return NewValidationError(c, "Invalid tuitionFeeId", nil)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", nil)
	}

	payment, fee, err := h.paymentService.Create(tuitionFeeID, amount)
	if err != nil {
		log.Error().Err(err).Str("tuition_fee_id", tuitionFeeID.String()).Msg("Failed to record payment")
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, PaymentResultResponse{
		Payment:    toPaymentResponse(payment),
		TuitionFee: toTuitionFeeResponse(fee),
	})
}

// GetByID returns a single payment
// @Summary Get payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} PaymentResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetByID(c echo.Context) error {
	id, err := parseUUIDParam(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	payment, err := h.paymentService.GetByID(id)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// ListByStudent returns a student's payment history, newest first
// @Summary List student payments
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param studentId query string true "Student ID"
// @Param classId query string false "Filter by class ID"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Success 200 {object} PaginatedPaymentsResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /payments [get]
func (h *PaymentHandler) ListByStudent(c echo.Context) error {
	studentID, err := parseUUIDParam(c.QueryParam("studentId"))
	if err != nil {
		return NewValidationError(c, "Invalid studentId", nil)
	}

	filters := &domain.PaymentFilters{
		StudentID: studentID,
		Page:      1,
		PageSize:  domain.DefaultPageSize,
	}

	if classIDStr := c.QueryParam("classId"); classIDStr != "" {
		classID, err := parseUUIDParam(classIDStr)
		if err != nil {
			return NewValidationError(c, "Invalid classId", nil)
		}
		filters.ClassID = &classID
	}
	if err := bindPagination(c, &filters.Page, &filters.PageSize); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	result, err := h.paymentService.ListByStudent(filters)
	if err != nil {
		log.Error().Err(err).Str("student_id", studentID.String()).Msg("Failed to list payments")
		return NewInternalError(c, "Failed to list payments")
	}

	data := make([]PaymentResponse, 0, len(result.Data))
	for _, payment := range result.Data {
		data = append(data, toPaymentResponse(payment))
	}

	return c.JSON(http.StatusOK, PaginatedPaymentsResponse{
		Data:       data,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// handleServiceError maps domain errors to appropriate HTTP responses
func (h *PaymentHandler) handleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrTuitionFeeNotFound):
		return NewNotFoundError(c, "Tuition fee not found")
	case errors.Is(err, domain.ErrPaymentNotFound):
		return NewNotFoundError(c, "Payment not found")
	case errors.Is(err, domain.ErrPaymentAmountInvalid):
		return NewValidationError(c, "Payment amount must be positive", nil)
	case errors.Is(err, domain.ErrFeeAlreadySettled):
		return NewConflictError(c, "Tuition fee is already settled")
	default:
		return NewInternalError(c, "Payment operation failed")
	}
}
