package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/handler"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// RegisterBookings registers customer booking endpoints under /v1.
// All routes require a valid JWT; admins can book like any customer.
// The rate limiter sits in front of the group to absorb double-submit
// storms before they reach the transaction manager.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, rdb *redis.Client, rlCfg config.RateLimitConfig) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
		middleware.RateLimit(rdb, rlCfg),
	)
	g.POST("/bookings", h.Create)
	g.GET("/my-bookings", h.ListMy)
	g.GET("/bookings/:id", h.Get)
	g.DELETE("/bookings/:id", h.Cancel)
}
