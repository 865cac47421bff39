// Package server assembles the HTTP API: repositories, services, handlers
// and middleware over one injected store.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vidaplus/internal/config"
	"vidaplus/internal/handler"
	"vidaplus/internal/lib/sl"
	"vidaplus/internal/middleware"
	"vidaplus/internal/model"
	"vidaplus/internal/repository"
	"vidaplus/internal/service"
	"vidaplus/internal/storage"
	"vidaplus/internal/utils"
	"vidaplus/internal/validation"
)

// Options holds the dependencies of the router
type Options struct {
	Config   *config.Config
	Store    storage.Store
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// NewRouter builds the gin engine serving the API
func NewRouter(opts Options) (*gin.Engine, error) {
	if err := validation.ConfigureEngine(binding.Validator.Engine()); err != nil {
		return nil, fmt.Errorf("failed to configure request validation: %w", err)
	}

	cfg := opts.Config
	log := opts.Logger

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.Auth.JWTSecret, cfg.Auth.JWTExpirationHours)

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(opts.Store, log)
	recordRepo := repository.NewRecordRepository(opts.Store)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, jwtUtil, cfg.Auth.InitialAdminEmail, log)
	recordService := service.NewRecordService(recordRepo)

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(authService, log)
	recordHandler := handler.NewRecordHandler(recordService, log)

	// --- Initialize Middlewares ---
	metrics := middleware.NewMetrics(opts.Registry)
	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil)
	loginLimitMW := middleware.RateLimitMiddleware(
		middleware.NewIPRateLimiter(cfg.Auth.LoginRatePerSecond, cfg.Auth.LoginBurst), log)

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		log.Error("panic recovered",
			slog.Any("panic", rec),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	router.Use(middleware.RequestLogger(log), metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// --- Register Routes ---
	apiGroup := router.Group("/api")
	authHandler.RegisterAuthRoutes(apiGroup, jwtAuthMW, loginLimitMW)
	recordHandler.RegisterRecordRoutes(apiGroup, readGuards(cfg.HTTP.RequireAuthOnRead, jwtAuthMW))

	if cfg.HTTP.LegacyRoutes {
		log.Info("mounting legacy /register and /login routes")
		authHandler.RegisterLegacyRoutes(router, loginLimitMW)
	}

	router.GET("/health", func(c *gin.Context) {
		if err := opts.Store.Ping(c.Request.Context()); err != nil {
			log.Error("health check failed", sl.Err(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "storage": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	return router, nil
}

// readGuards protects the read routes when enabled. Financial data is
// restricted to administrators.
func readGuards(enabled bool, jwtAuthMW gin.HandlerFunc) func(string) []gin.HandlerFunc {
	if !enabled {
		return nil
	}
	return func(collection string) []gin.HandlerFunc {
		if collection == model.CollectionFinancialData {
			return []gin.HandlerFunc{jwtAuthMW, middleware.AdminMiddleware()}
		}
		return []gin.HandlerFunc{jwtAuthMW}
	}
}
