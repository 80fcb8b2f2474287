package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetStats handles GET /v1/admin/stats and returns the aggregate
// counters for the admin console.
func (h *AdminHandler) GetStats(c echo.Context) error {
	s, err := h.Stats.Collect(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to collect stats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"stats": s})
}
