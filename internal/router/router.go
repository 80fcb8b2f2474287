package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/handler"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth; /v1/me and
// /v1/auth/logout run behind JWT auth so the handler can identify the
// caller.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated event catalogue.  When
// rdb is non-nil the listing and detail endpoints are served through
// the Redis response cache; seat availability then lags by at most the
// configured TTL, which the catalogue tolerates.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, rdb *redis.Client, cacheCfg config.CacheConfig) {
	g := e.Group("/v1", middleware.ResponseCache(rdb, cacheCfg))
	g.GET("/events", p.ListEvents)
	g.GET("/events/:id", p.GetEvent)
}
