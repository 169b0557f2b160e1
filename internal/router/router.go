package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework for routing
    "github.com/redis/go-redis/v9"

    "github.com/agrolink/farm-marketplace/internal/config"
    "github.com/agrolink/farm-marketplace/internal/handler"
    "github.com/agrolink/farm-marketplace/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints. Register, login and
// logout are open; /auth/me and /auth/update require a valid session
// cookie. Every protected group below uses the same CookieAuth
// middleware with the shared secret.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/logout", a.Logout)

    p := g.Group("")
    p.Use(middleware.CookieAuth(jwtSecret))
    p.GET("/me", a.Me)
    p.PATCH("/update", a.Update)
}

// RegisterCrops registers the crop CRUD and bidding endpoints. The
// farmer-only routes manage a farmer's own records; the dealer-only
// routes browse all crops and place bids or purchase requests.
func RegisterCrops(e *echo.Echo, crop *handler.CropHandler, req *handler.RequestHandler, jwtSecret string) {
    g := e.Group("/crops")
    g.Use(middleware.CookieAuth(jwtSecret))

    farmer := middleware.RequireRole("farmer")
    dealer := middleware.RequireRole("dealer")

    g.POST("/add", crop.Add, farmer)
    g.GET("/farmer/:id", crop.ListByFarmer, farmer)
    g.PATCH("/:id", crop.Update, farmer)
    g.DELETE("/:id", crop.Delete, farmer)

    // Browsing is open to any authenticated user; only bidding and
    // requesting are dealer actions.
    g.GET("", crop.ListAll)
    g.POST("/bid/:cropId", crop.PlaceBid, dealer)
    g.POST("/request/:cropId", req.CreateForCrop, dealer)
}

// RegisterMarketplace registers the harvested-listing endpoints. The
// public browse view is wrapped in the Redis response cache since it
// is the hottest read in the system and tolerates slight staleness.
func RegisterMarketplace(e *echo.Echo, m *handler.MarketplaceHandler, jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client) {
    g := e.Group("/marketplace")
    g.Use(middleware.CookieAuth(jwtSecret))

    farmer := middleware.RequireRole("farmer")

    g.POST("/harvest/:cropId", m.Harvest, farmer)
    g.POST("/add-direct", m.AddDirect, farmer)
    g.GET("/my-crops", m.MyCrops, farmer)

    g.GET("/crops", m.PublicCrops, middleware.NewRedisCache(cacheCfg, rdb))
}

// RegisterRequests registers the purchase-request workflow and the
// notification feed hanging off it.
func RegisterRequests(e *echo.Echo, r *handler.RequestHandler, jwtSecret string) {
    g := e.Group("/requests")
    g.Use(middleware.CookieAuth(jwtSecret))

    farmer := middleware.RequireRole("farmer")
    dealer := middleware.RequireRole("dealer")

    g.POST("/create", r.Create, dealer)
    g.GET("/:requestId", r.Detail)
    g.POST("/accept/:id", r.Accept, farmer)
    g.POST("/reject/:id", r.Reject, farmer)

    g.GET("/notifications/:userId", r.ListNotifications)
    g.POST("/notifications/read/:id", r.MarkNotificationRead)
}

// RegisterLive registers the websocket subscription endpoint. The
// upgrade request carries the session cookie like any other request,
// so the normal auth middleware applies.
func RegisterLive(e *echo.Echo, l *handler.LiveHandler, jwtSecret string) {
    e.GET("/ws", l.Subscribe, middleware.CookieAuth(jwtSecret))
}
