package main // Entry point package

import (
    "context"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/cinetix/box-office/internal/config"
    "github.com/cinetix/box-office/internal/database"
    "github.com/cinetix/box-office/internal/handler"
    "github.com/cinetix/box-office/internal/payment"
    "github.com/cinetix/box-office/internal/queue"
    "github.com/cinetix/box-office/internal/repository"
    "github.com/cinetix/box-office/internal/router"
    queue_publisher "github.com/cinetix/box-office/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    if err := godotenv.Load(); err != nil {
        log.Printf("no .env file loaded: %v", err)
    }
    cfg := config.Load()

    db, err := database.Open(context.Background(), cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis is optional infrastructure: rate limiting and the seat-map
    // cache degrade to no-ops when it is unreachable.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; rate limiting and caching disabled")
    }

    ecpay := payment.Settings{
        MerchantID:    cfg.EcpayMerchantID,
        HashKey:       cfg.EcpayHashKey,
        HashIV:        cfg.EcpayHashIV,
        ReturnURL:     cfg.EcpayReturnURL,
        ClientBackURL: cfg.EcpayClientBackURL,
    }

    bookingHandler := handler.NewBookingHandler(
        repository.NewSessionRepo(db),
        repository.NewTierRepo(db),
        repository.NewOrderRepo(db),
        repository.NewSeatRepo(db),
        ecpay,
    )
    bookingHandler.PublishPaid = queue_publisher.PublishOrderPaid

    // Background settlement log consumer; reconnects on its own.
    go func() {
        if err := queue.StartOrderPaidConsumer(); err != nil {
            log.Printf("order consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterBooking(e, bookingHandler, cfg.JWTSecret, rdb)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
