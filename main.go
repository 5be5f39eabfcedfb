package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rideaxis/internal/config"
	"rideaxis/internal/db"
	"rideaxis/internal/logger"
	"rideaxis/internal/middleware"
	"rideaxis/internal/routes"
	"rideaxis/internal/services"
	"rideaxis/internal/utils"
	"rideaxis/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, envLoaded := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	if !envLoaded {
		zlog.Info(".env file not found, using process environment")
	}
	if err := cfg.Validate(); err != nil {
		zlog.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	gdb, err := db.ConnectWithRetry(cfg, zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		zlog.Fatal("database migration failed", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Redis is optional: without it live tracking stays in this process.
	redisClient, err := db.NewRedisClient(cfg)
	if err != nil {
		zlog.Warn("redis unavailable, live tracking is local only", zap.Error(err))
		redisClient = nil
	} else {
		zlog.Info("connected to redis", zap.String("addr", cfg.RedisAddr()))
		defer redisClient.Close()
	}

	hub := websocket.NewHub(zlog)
	tracker := services.NewTracker(redisClient, hub, zlog)
	go tracker.Run(ctx)

	loc := cfg.Location()
	retention, err := services.StartLocationRetention(gdb, cfg.RetentionCron, cfg.LocationRetentionDays, loc, zlog)
	if err != nil {
		zlog.Fatal("invalid retention schedule", zap.String("schedule", cfg.RetentionCron), zap.Error(err))
	}
	if retention != nil {
		defer retention.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinLogger(zlog))
	r.Use(middleware.PrometheusMiddleware())

	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		zlog.Warn("trusted proxies", zap.Error(err))
	}

	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Static("/uploads", cfg.UploadDir)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	routes.SetupRoutes(r.Group(""), routes.Deps{
		DB:           gdb,
		Issuer:       utils.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL),
		Tracker:      tracker,
		Hub:          hub,
		Terminals:    services.NewTerminalCache(gdb, cfg.TerminalCacheTTL),
		Location:     loc,
		UploadDir:    cfg.UploadDir,
		SecureCookie: cfg.SessionCookieSecure,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		zlog.Info("server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutdown signal received, closing connections")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	zlog.Info("server stopped")
}
