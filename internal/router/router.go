package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/config"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/handler"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/middleware"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register, login
	// and refresh.  Each handler is responsible for generating or
	// exchanging tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token: the presented token is revoked
	// and a brand new pair is issued.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a JSON body containing the refresh token and revokes
	// it.  No JWT is required so an expired access token never blocks a
	// sign-out.
	g.POST("/logout", a.Logout)

	// Endpoints below require a valid access token.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterSession registers the session bootstrap endpoints consumed by the
// customer and staff front-ends on page load.  They accept an optional
// bearer token and never fail on a missing or expired one, so they carry no
// auth middleware of their own.
func RegisterSession(e *echo.Echo, s *handler.SessionHandler) {
	e.GET("/v1/session", s.Bootstrap)
	e.GET("/v1/session/decision", s.Decision)
}

// RegisterTables registers the table listing and occupancy endpoints.  All
// of them are staff-facing: listing feeds the floor dashboard, reserve and
// release open and close table sessions.  The read path sits behind the
// Redis response cache; the write paths are rate limited per user.
func RegisterTables(e *echo.Echo, t *handler.TableHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireStaff())

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g.GET("/restaurants/:id/tables", t.ListTables, cache)
	g.POST("/tables/:id/reserve", t.Reserve, limit)
	g.POST("/tables/:id/release", t.Release, limit)
}

// RegisterOrders registers the order status endpoint for staff and the
// customer-facing event stream.  The stream authenticates by session key
// rather than JWT: the customer who scanned the QR code holds the key but
// has no account.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, f *handler.FeedHandler, jwtSecret string) {
	g := e.Group("/v1/orders")
	g.GET("/feed", f.Stream)

	staff := g.Group("")
	staff.Use(middleware.JWTAuth(jwtSecret))
	staff.Use(middleware.RequireRole(model.RoleStaff, model.RoleRestaurantOwner, model.RoleSuperAdmin))
	staff.PATCH("/:id/status", o.UpdateStatus)
}
