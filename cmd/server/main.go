package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"template-repo-service/internal/adapters/primary/http/handlers"
	"template-repo-service/internal/adapters/primary/http/middleware"
	"template-repo-service/internal/adapters/secondary/postgres"
	"template-repo-service/internal/config"
	"template-repo-service/internal/core/domain"
	"template-repo-service/internal/core/services"
	"template-repo-service/internal/jobs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// Create database pool
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("parse db config: %v", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatalf("create db pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatalf("ping db: %v", err)
	}
	log.Info("database connection established")

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		log.Fatalf("create upload dir: %v", err)
	}

	// Secondary adapter
	templateRepo := postgres.NewTemplateRepository(pool)

	// Core services
	templateSvc, err := services.NewTemplateService(templateRepo, cfg.Storage.TemplateDir)
	if err != nil {
		log.Fatalf("init template service: %v", err)
	}
	reconciler := services.NewReconciler(templateRepo, cfg.Storage.TemplateDir, cfg.Storage.UploadDir, cfg.Reconcile.Grace)

	// Authentication (optional - based on config)
	var authn gin.HandlerFunc
	if cfg.Auth.Enabled {
		keys := middleware.NewJWKSClient(cfg.Auth.JWKSURL, cfg.Auth.CacheTTL)
		authn = middleware.Authentication(keys, middleware.AuthConfig{
			JWKSURL:  cfg.Auth.JWKSURL,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
			CacheTTL: cfg.Auth.CacheTTL,
		})
		log.Info("JWT authentication enabled")
	} else {
		authn = middleware.StaticPrincipal(domain.Principal{UserRef: "user:development/guest"})
		log.Warn("authentication disabled, uploads attributed to the guest principal")
	}

	// Primary adapter (HTTP handlers)
	h := handlers.New(templateSvc, cfg.Storage.UploadDir, cfg.Storage.MaxUploadSize)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/template-repo")
	h.RegisterRoutes(api, authn)

	// Health check with DB ping
	router.GET("/healthz", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Orphan-file sweep: once at startup, then on the cron schedule.
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()
	if _, err := reconciler.Sweep(jobCtx); err != nil {
		log.WithError(err).Warn("startup reconciliation sweep failed")
	}
	if _, err := jobs.ScheduleReconcile(jobCtx, reconciler, cfg.Reconcile.Schedule); err != nil {
		log.Fatalf("schedule reconciliation: %v", err)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	jobCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
