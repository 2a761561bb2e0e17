package gateway

import (
	"context"

	"github.com/gin-gonic/gin"

	"wahook/internal/config"
	"wahook/internal/constants"
	"wahook/internal/logger"
	"wahook/pkg/middleware"
	"wahook/pkg/ratelimit"
	"wahook/pkg/tracing"
)

type RouterOptions struct {
	Tracing bool
}

// NewRouter builds the control-plane engine. CORS runs first so preflights
// skip auth, and auth runs before routing so unknown paths need a token too.
func NewRouter(ctx context.Context, cfg config.GatewayConfig, h *Handler, log logger.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.HandleMethodNotAllowed = false

	if opts.Tracing {
		router.Use(tracing.GinMiddleware(constants.ServiceName))
	}
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.AuthMiddleware(cfg.AuthToken))

	if cfg.RateLimit.Enabled {
		router.Use(ratelimit.RateLimitMiddleware(ctx, ratelimit.FromConfig(cfg.RateLimit)))
	}

	h.RegisterRoutes(router)
	router.NoRoute(h.NotFound)

	return router
}
