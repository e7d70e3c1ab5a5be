package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"qrattend/internal/attendance"
	"qrattend/internal/auth"
	"qrattend/internal/cloudinary"
	"qrattend/internal/config"
	"qrattend/internal/feed"
	"qrattend/internal/httpmiddleware"
	"qrattend/internal/observability"
	"qrattend/internal/queue"
	"qrattend/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	var (
		ledger attendance.Store
		db     *store.DB
	)
	if cfg.DatabaseURL == "memory" {
		ledger = attendance.NewMemoryStore()
		logger.Warn("using in-memory store; data will not survive restarts")
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := store.Migrate(context.Background(), db.Client); err != nil {
			return err
		}
		ledger = attendance.NewRepository(db.Client)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	// Cloudinary client (nil when not configured)
	var cdn *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdn = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		logger.Info("cloudinary configured", zap.String("cloud", cfg.CloudinaryCloudName))
	}

	s := &server{
		cfg:    cfg,
		log:    logger,
		store:  ledger,
		issuer: attendance.NewIssuer(ledger, cfg.MaxSessionTTL),
		engine: attendance.NewEngine(ledger, cfg.LateAfter),
		agg:    attendance.NewAggregator(ledger),
		queue:  q,
		feed:   feed.New(redisClient.Client, ""),
		cdn:    cdn,
		redis:  redisClient,
		db:     db,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.handleHealth)

	key, iss := cfg.JWTSigningKey, cfg.JWTIssuer
	v1 := r.Group("/v1")
	{
		staff := v1.Group("", auth.RequireRole(key, iss, auth.RoleLecturer, auth.RoleAdmin))
		staff.POST("/sessions", s.handleIssueSession)
		staff.GET("/sessions", s.handleListSessions)
		staff.GET("/sessions/:id/claims", s.handleSessionClaims)
		staff.DELETE("/sessions/:id", s.handleDeactivateSession)
		staff.GET("/summary", s.handleIssuerSummary)
		staff.GET("/recent", s.handleRecent)

		students := v1.Group("", auth.RequireRole(key, iss, auth.RoleStudent))
		students.POST("/scan", s.handleScan)
		students.GET("/me/summary", s.handleSubjectSummary)
		students.GET("/me/claims", s.handleSubjectClaims)

		admin := v1.Group("", auth.RequireRole(key, iss, auth.RoleAdmin))
		admin.GET("/stats", s.handleStats)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
