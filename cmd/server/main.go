package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // Loads .env files in development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/agrolink/farm-marketplace/internal/config"
    "github.com/agrolink/farm-marketplace/internal/database"
    "github.com/agrolink/farm-marketplace/internal/handler"
    "github.com/agrolink/farm-marketplace/internal/live"
    "github.com/agrolink/farm-marketplace/internal/middleware"
    "github.com/agrolink/farm-marketplace/internal/notify"
    "github.com/agrolink/farm-marketplace/internal/queue"
    "github.com/agrolink/farm-marketplace/internal/repository"
    "github.com/agrolink/farm-marketplace/internal/router"
)

func main() {
    // .env is optional; in production configuration comes from the
    // real environment.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("open database: %v", err)
    }
    if err := database.Migrate(cfg.MigrationsURL, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName); err != nil {
        log.Fatalf("run migrations: %v", err)
    }

    // Redis is optional: with no client the cache and the rate
    // limiter degrade to no-ops.
    rdb := config.NewRedisClient()

    users := repository.NewUserRepo(db)
    crops := repository.NewCropRepo(db)
    market := repository.NewMarketplaceRepo(db)
    requests := repository.NewRequestRepo(db)
    bids := repository.NewBidRepo(db)
    notifications := repository.NewNotificationRepo(db)

    hub := live.NewHub()
    dispatcher := notify.NewDispatcher(notifications, hub)

    authHandler := handler.NewAuthHandler(cfg, users)
    cropHandler := handler.NewCropHandler(crops, bids)
    marketHandler := handler.NewMarketplaceHandler(crops, market)
    requestHandler := handler.NewRequestHandler(requests, crops, users, notifications, dispatcher)
    liveHandler := handler.NewLiveHandler(hub)

    // Receipt rendering consumes accepted-deal events off the broker
    // in the background; it reconnects on its own when the broker
    // drops.
    go queue.StartReceiptConsumer(cfg.ReceiptDir)

    e := echo.New()
    e.HideBanner = true
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterCrops(e, cropHandler, requestHandler, cfg.JWTSecret)
    router.RegisterMarketplace(e, marketHandler, cfg.JWTSecret, config.LoadCacheConfig(), rdb)
    router.RegisterRequests(e, requestHandler, cfg.JWTSecret)
    router.RegisterLive(e, liveHandler, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
