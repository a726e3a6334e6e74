package middleware

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/cinetix/box-office/internal/config"
)

// cachedResponse is the envelope stored in Redis for a cached seat-map
// read.  The one route this middleware serves always renders JSON, so a
// JSON envelope of status plus body is all that needs to survive.
type cachedResponse struct {
    Status int             `json:"status"`
    Body   json.RawMessage `json:"body"`
}

// bodyRecorder tees the response body so a successful render can be
// stored after the handler ran.
type bodyRecorder struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
}

func (w *bodyRecorder) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
    w.buf.Write(b)
    return w.ResponseWriter.Write(b)
}

// NewSeatMapCache returns a middleware that caches 200 responses of a GET
// route in Redis for the configured TTL.  Seat availability tolerates a
// few seconds of staleness on the browse path; the checkout and
// settlement paths never go through this cache and always see live
// state.  With caching disabled or Redis unavailable the middleware is a
// no-op.
func NewSeatMapCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cfg.Prefix + ":" + c.Request().URL.RequestURI()

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var cached cachedResponse
                if json.Unmarshal(raw, &cached) == nil && cached.Status != 0 {
                    c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.JSONBlob(cached.Status, cached.Body)
                }
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if rec.status == http.StatusOK {
                raw, err := json.Marshal(cachedResponse{Status: rec.status, Body: rec.buf.Bytes()})
                if err == nil {
                    // Detached context: the client is served either way.
                    _ = rdb.SetEx(context.Background(), key, raw, cfg.TTL).Err()
                }
            }
            return nil
        }
    }
}
