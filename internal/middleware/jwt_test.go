package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/utils"
)

func TestJWTAuth(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"

	next := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	run := func(t *testing.T, authorization string) (*httptest.ResponseRecorder, echo.Context) {
		t.Helper()
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := JWTAuth(secret)(next)(c); err != nil {
			t.Fatalf("middleware error: %v", err)
		}
		return rec, c
	}

	t.Run("accepts a valid token and exposes claims", func(t *testing.T) {
		tok, err := utils.NewAccessToken(secret, 7, "USER", 5)
		if err != nil {
			t.Fatalf("token issue failed: %v", err)
		}
		rec, c := run(t, "Bearer "+tok.Token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if role, _ := c.Get("role").(string); role != "USER" {
			t.Fatalf("expected role USER in context, got %v", c.Get("role"))
		}
		if c.Get("user_id") == nil {
			t.Fatalf("expected user_id in context")
		}
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		rec, _ := run(t, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		rec, _ := run(t, "Bearer not-a-jwt")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		tok, err := utils.NewAccessToken("other-secret", 7, "USER", 5)
		if err != nil {
			t.Fatalf("token issue failed: %v", err)
		}
		rec, _ := run(t, "Bearer "+tok.Token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
