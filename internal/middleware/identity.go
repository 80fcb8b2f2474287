package middleware

// identity.go holds small helpers shared by the caching and rate-limit
// middleware.  They read the claims JWTAuth placed in the context and
// fall back to "guest" for unauthenticated requests, so public routes
// still get per-client keys.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// clientID returns a stable identifier for the requesting client: the
// JWT subject when authenticated, the remote IP otherwise.  Numeric
// subjects decode from JWT claims as float64.
func clientID(c echo.Context) string {
	switch sub := c.Get("user_id").(type) {
	case string:
		if sub != "" {
			return sub
		}
	case float64:
		return strconv.FormatUint(uint64(sub), 10)
	case uint64:
		return strconv.FormatUint(sub, 10)
	}
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "guest"
}
