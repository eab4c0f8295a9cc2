package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds one API request.
const DefaultRequestTimeout = 30 * time.Second

// ScopeAdmin is required for bulk import and on-demand sync when auth is on.
const ScopeAdmin = "quotes:admin"

// RouterConfig contains what SetupRouter wires.
type RouterConfig struct {
	Logger     *slog.Logger
	AuthConfig *config.AuthConfig
	AppConfig  *config.AppConfig

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler

	SyncHandler *handlers.SyncHandler

	Timeout time.Duration
}

// SetupRouter configures middleware and routes on engine.
// Middleware runs in this order:
//  1. Recovery
//  2. Context logger
//  3. Request ID, then correlation ID
//  4. Tracing and HTTP metrics
//  5. Request logging (skips /-/)
//
// /-/ carries the probes without auth or timeout. /api/v1 carries the quote
// API; writes need gateway claims when auth is enabled, and import and sync
// also need ScopeAdmin.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(),
		middleware.ContextLogger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	api := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		api.Use(middleware.Timeout(cfg.Timeout))
	}

	setupAPIRoutes(api, cfg)
}

func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	authOn := cfg.AuthConfig != nil && cfg.AuthConfig.Enabled

	writes := rg.Group("")
	if authOn {
		writes.Use(middleware.RequireAuth(cfg.AuthConfig))
	}

	admin := writes.Group("")
	if authOn {
		admin.Use(middleware.RequireScope(cfg.AuthConfig, ScopeAdmin))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterReadRoutes(rg)
		cfg.QuoteHandler.RegisterWriteRoutes(writes)
		cfg.QuoteHandler.RegisterAdminRoutes(admin)
	}

	if cfg.SyncHandler != nil {
		cfg.SyncHandler.RegisterReadRoutes(rg)
		cfg.SyncHandler.RegisterAdminRoutes(admin)
	}
}

// NewDefaultRouterConfig creates a RouterConfig with DefaultRequestTimeout.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	authCfg *config.AuthConfig,
	health *handlers.HealthHandler,
	quotes *handlers.QuoteHandler,
	sync *handlers.SyncHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AuthConfig:    authCfg,
		AppConfig:     appCfg,
		HealthHandler: health,
		QuoteHandler:  quotes,
		SyncHandler:   sync,
		Timeout:       DefaultRequestTimeout,
	}
}
