package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticket-booking/internal/config"
)

// cachedResponse is the envelope stored in Redis for a cached catalogue
// response.  Only the pieces needed to replay the response are kept.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder tees the response body so a successful render can be
// stored after the handler returns.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// ResponseCache returns a read-through cache for the public event
// catalogue.  Cache keys include the full URI and the client identity,
// so authenticated views never leak across users.  Only 200 responses
// under cfg.MaxBodyBytes are stored; everything else passes through.
// Like the rate limiter, it degrades to a no-op without Redis.
func ResponseCache(rdb *redis.Client, cfg config.CacheConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled || rdb == nil || !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, clientID(c), c.Request().RequestURI)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var st cachedResponse
				if json.Unmarshal(raw, &st) == nil {
					c.Response().Header().Set(echo.HeaderContentType, st.ContentType)
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(st.Status, st.ContentType, st.Body)
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if rec.status == http.StatusOK && rec.buf.Len() <= cfg.MaxBodyBytes {
				st := cachedResponse{
					Status:      rec.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        rec.buf.Bytes(),
				}
				if raw, err := json.Marshal(st); err == nil {
					rdb.Set(ctx, key, raw, cfg.TTL)
				}
			}
			return nil
		}
	}
}

func cacheKey(prefix, client, uri string) string {
	sum := sha256.Sum256([]byte(client + "|" + uri))
	return prefix + ":" + hex.EncodeToString(sum[:16])
}
