// Package http provides the HTTP servers for serenai.
package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/xiaot623/serenai/internal/auth"
	"github.com/xiaot623/serenai/internal/config"
	"github.com/xiaot623/serenai/internal/hub"
	"github.com/xiaot623/serenai/internal/service"
	v1 "github.com/xiaot623/serenai/internal/transport/http/v1"
	"github.com/xiaot623/serenai/internal/ws"
)

// NewPublicServer creates the client-facing server: REST API under /v1 and the
// circle websocket at /ws.
func NewPublicServer(cfg *config.Config, svc *service.Service, h *hub.Hub, wsServer *ws.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowCredentials: true,
	}))

	e.GET("/health", v1.Health)
	e.GET("/ws", wsServer.HandleWebSocket)

	api := e.Group("/v1", apiRateLimiter(cfg.APIRateLimit, cfg.APIRateWindow))
	v1.NewHandler(svc, h, auth.NewVerifier(cfg.JWTSecret)).RegisterRoutes(api)

	return e
}

// apiRateLimiter allows limit requests per window per client IP.
func apiRateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	if limit <= 0 || window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests, please try again later"})
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "unable to identify client"})
		},
	})
}

// NewInternalServer creates the operator-facing server with health and metrics.
func NewInternalServer(h *hub.Hub, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":      "healthy",
			"connections": h.GetConnectionCount(),
			"circles":     h.GetCircleCount(),
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return e
}
