package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/service"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64.  JWT numeric claims decode as float64, so several shapes are
// accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// pageParams reads the page/limit query parameters, tolerating absence
// and garbage.  Bounds are enforced again in the repository.
func pageParams(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	return page, limit
}

// writeBookingError maps the booking manager's sentinel errors to HTTP
// responses.  Unknown errors become 500 with a generic message so
// internals never leak to clients.
func writeBookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidTicketCount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tickets must be at least 1"})
	case errors.Is(err, service.ErrInvalidCapacity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be at least 1"})
	case errors.Is(err, service.ErrInsufficientSeats):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not enough seats available"})
	case errors.Is(err, service.ErrEventAlreadyStarted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "event already started"})
	case errors.Is(err, service.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
	case errors.Is(err, service.ErrTooLateToCancel):
		return c.JSON(http.StatusConflict, echo.Map{"error": "event already started"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
