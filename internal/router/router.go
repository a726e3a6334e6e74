package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/cinetix/box-office/internal/config"
    "github.com/cinetix/box-office/internal/handler"
    "github.com/cinetix/box-office/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Used by load balancers and monitoring to verify the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterBooking wires the checkout, settlement and browse endpoints.
//
// Buyer-facing routes live under /v1 behind JWT authentication; checkout
// additionally sits behind the Redis token-bucket limiter.  The gateway
// settlement callback is public by necessity (the gateway cannot carry a
// buyer token) and authenticates itself through its CheckMacValue.  The
// seat-map read is public and cached.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, rdb *redis.Client) {
    // Public browse surface.
    seatCache := middleware.NewSeatMapCache(config.LoadCacheConfig(), rdb)
    e.GET("/v1/sessions/:id/seats", b.GetSessionSeats, seatCache)

    // Gateway callback: no JWT, authenticated by signature.
    e.POST("/v1/payments/ecpay/notify", b.ConfirmPayment)

    // Authenticated buyer surface.
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))

    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    auth.POST("/sessions/:id/checkout", b.CreateAndPay, limiter)
    auth.POST("/orders/:token/pay", b.ReissuePayment, limiter)
    auth.GET("/orders", b.ListOrders)
}
