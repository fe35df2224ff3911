package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func requestWithPermissions(e *echo.Echo, permissions []string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	ctx := context.WithValue(req.Context(), SubjectKey, "auth0|operator-1")
	ctx = context.WithValue(ctx, PermissionsKey, permissions)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireCapability_AllowsMatchingPermission(t *testing.T) {
	e := echo.New()

	handler := RequireCapability(CapabilityPaymentCreate)(func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})

	c, rec := requestWithPermissions(e, []string{CapabilityPaymentRead, CapabilityPaymentCreate})
	if err := handler(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestRequireCapability_RejectsMissingPermission(t *testing.T) {
	e := echo.New()

	called := false
	handler := RequireCapability(CapabilityPaymentCreate)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusCreated)
	})

	c, rec := requestWithPermissions(e, []string{CapabilityPaymentRead})
	if err := handler(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Error("handler should not have been called")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestRequireCapability_RejectsNoPermissions(t *testing.T) {
	e := echo.New()

	handler := RequireCapability(CapabilityPayrollWrite)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c, rec := requestWithPermissions(e, nil)
	if err := handler(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
