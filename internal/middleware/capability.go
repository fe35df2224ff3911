package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Capabilities checked on billing routes. They mirror the permissions
// assigned to admin and accountant roles in the identity provider.
const (
	CapabilityAttendanceRead   = "attendance:read"
	CapabilityAttendanceWrite  = "attendance:write"
	CapabilityTuitionFeeRead   = "tuition_fee:read"
	CapabilityTuitionFeeWrite  = "tuition_fee:write"
	CapabilityPaymentRead      = "payment:read"
	CapabilityPaymentCreate    = "payment:create"
	CapabilityPayrollRead      = "payroll:read"
	CapabilityPayrollWrite     = "payroll:write"
)

// RequireCapability returns an Echo middleware that rejects requests whose
// token does not carry the given permission. It must run after Authenticate.
func RequireCapability(capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, permission := range GetPermissions(c) {
				if permission == capability {
					return next(c)
				}
			}

			log.Debug().
				Str("subject", GetSubject(c)).
				Str("capability", capability).
				Msg("Capability check failed")
			return forbiddenError(c, "Missing required permission: "+capability)
		}
	}
}
