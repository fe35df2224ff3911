package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/minhvu/edupay/edupay-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, attendanceHandler *AttendanceHandler, feeHandler *TuitionFeeHandler, paymentHandler *PaymentHandler, teacherPaymentHandler *TeacherPaymentHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Attendance routes
	attendance := api.Group("/attendance")
	attendance.POST("/sheets", attendanceHandler.CreateSheet, middleware.RequireCapability(middleware.CapabilityAttendanceWrite))
	attendance.PATCH("/:id/presence", attendanceHandler.SetPresence, middleware.RequireCapability(middleware.CapabilityAttendanceWrite))
	attendance.GET("", attendanceHandler.Search, middleware.RequireCapability(middleware.CapabilityAttendanceRead))
	attendance.GET("/present-count", attendanceHandler.PresentCount, middleware.RequireCapability(middleware.CapabilityAttendanceRead))
	attendance.GET("/:id", attendanceHandler.GetByID, middleware.RequireCapability(middleware.CapabilityAttendanceRead))

	// Tuition fee routes
	fees := api.Group("/tuition-fees")
	fees.POST("/compute", feeHandler.Compute, middleware.RequireCapability(middleware.CapabilityTuitionFeeWrite))
	fees.GET("", feeHandler.Search, middleware.RequireCapability(middleware.CapabilityTuitionFeeRead))
	fees.GET("/:id", feeHandler.GetByID, middleware.RequireCapability(middleware.CapabilityTuitionFeeRead))

	// Payment routes
	payments := api.Group("/payments")
	payments.POST("", paymentHandler.Create, middleware.RequireCapability(middleware.CapabilityPaymentCreate))
	payments.GET("", paymentHandler.ListByStudent, middleware.RequireCapability(middleware.CapabilityPaymentRead))
	payments.GET("/:id", paymentHandler.GetByID, middleware.RequireCapability(middleware.CapabilityPaymentRead))

	// Payroll routes
	teacherPayments := api.Group("/teacher-payments")
	teacherPayments.POST("", teacherPaymentHandler.Create, middleware.RequireCapability(middleware.CapabilityPayrollWrite))
	teacherPayments.POST("/:id/payments", teacherPaymentHandler.ApplyPayment, middleware.RequireCapability(middleware.CapabilityPayrollWrite))
	teacherPayments.GET("", teacherPaymentHandler.Search, middleware.RequireCapability(middleware.CapabilityPayrollRead))
	teacherPayments.GET("/:id", teacherPaymentHandler.GetByID, middleware.RequireCapability(middleware.CapabilityPayrollRead))

	// WebSocket endpoint authenticates via query-param token, outside the
	// bearer middleware
	e.GET("/ws", wsHandler.HandleWS)
}
