package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tutormatch/tutormatch-api/api/swagger"
	"github.com/tutormatch/tutormatch-api/internal/handler"
	"github.com/tutormatch/tutormatch-api/internal/middleware"
	"github.com/tutormatch/tutormatch-api/internal/models"
	"github.com/tutormatch/tutormatch-api/internal/repository"
	"github.com/tutormatch/tutormatch-api/internal/service"
	"github.com/tutormatch/tutormatch-api/pkg/cache"
	"github.com/tutormatch/tutormatch-api/pkg/config"
	"github.com/tutormatch/tutormatch-api/pkg/database"
	"github.com/tutormatch/tutormatch-api/pkg/jobs"
	"github.com/tutormatch/tutormatch-api/pkg/logger"
	corsmiddleware "github.com/tutormatch/tutormatch-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutormatch/tutormatch-api/pkg/middleware/requestid"
)

// @title TutorMatch API
// @version 1.0.0
// @description Tutoring marketplace: tutoring details, availability, ratings and ownership.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("postgres unavailable", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("redis unavailable", zap.Error(err))
	}
	defer redisClient.Close()

	metrics := service.NewMetricsService()
	validate := validator.New()

	tutoringRepo := repository.NewTutoringRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, logr)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, sessionRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.CardCache.TTL, logr, cfg.CardCache.Enabled)
	detailsSvc := service.NewTutoringDetailsService(tutoringRepo, availabilityRepo, reviewRepo, userRepo, courseRepo, metrics, logr, service.DetailsConfig{
		DefaultImageURL:     cfg.Tutoring.DefaultImageURL,
		WhatsAppCountryCode: cfg.Tutoring.WhatsAppCountryCode,
	})
	cardSvc := service.NewTutoringCardService(tutoringRepo, reviewRepo, userRepo, cacheSvc, cfg.CardCache.TTL, logr, cfg.Tutoring.DefaultImageURL)
	tutoringSvc := service.NewTutoringService(tutoringRepo, cardSvc, validate, logr)
	exportSvc := service.NewAvailabilityExportService(detailsSvc, nil, nil, logr)

	refreshQueue := jobs.NewQueue("card-refresh", cardSvc.HandleRefreshJob, jobs.QueueConfig{
		Workers:    cfg.Jobs.CardRefreshWorkers,
		BufferSize: 64,
		MaxRetries: cfg.Jobs.CardRefreshRetries,
		RetryDelay: time.Second,
		Logger:     logr,
		OnDone: func(job jobs.Job, err error) {
			metrics.ObserveCardRefresh(err)
		},
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()
	cardSvc.AttachQueue(refreshQueue)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient, metrics))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	loginLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: cfg.RateLimit.LoginRequests,
		Window:   cfg.RateLimit.LoginWindow,
		Block:    cfg.RateLimit.BlockDuration,
	}, logr)

	api := r.Group(cfg.APIPrefix)
	registerRoutes(api, routeDeps{
		auth:      authSvc,
		limiter:   loginLimiter,
		logger:    logr,
		metrics:   metricsHandler,
		auths:     handler.NewAuthHandler(authSvc),
		tutorings: handler.NewTutoringHandler(detailsSvc, cardSvc, tutoringSvc, exportSvc),
		ownership: handler.NewOwnershipStreamHandler(detailsSvc, sessionRepo, cfg.Tutoring.OwnershipRecheckInterval, metrics, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routeDeps struct {
	auth      middleware.TokenValidator
	limiter   *middleware.RateLimiter
	logger    *zap.Logger
	metrics   *handler.MetricsHandler
	auths     *handler.AuthHandler
	tutorings *handler.TutoringHandler
	ownership *handler.OwnershipStreamHandler
}

func registerRoutes(api *gin.RouterGroup, d routeDeps) {
	requireAuth := middleware.JWT(d.auth)
	optionalAuth := middleware.OptionalJWT(d.auth)
	tutorOnly := middleware.RequireRoles(models.RoleTutor, models.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/login", d.limiter.Middleware(), d.auths.Login)
	auth.POST("/logout", requireAuth, d.auths.Logout)
	auth.GET("/me", requireAuth, d.auths.Me)

	tutorings := api.Group("/tutorings")
	tutorings.GET("", d.tutorings.List)
	tutorings.GET("/:id", optionalAuth, d.tutorings.Get)
	tutorings.GET("/:id/card", d.tutorings.Card)
	tutorings.GET("/:id/availability", d.tutorings.Availability)
	tutorings.GET("/:id/availability/export", d.tutorings.ExportAvailability)
	tutorings.GET("/:id/rating", d.tutorings.Rating)
	tutorings.GET("/:id/ownership", optionalAuth, d.tutorings.Ownership)
	tutorings.GET("/:id/ownership/stream", optionalAuth, d.ownership.Stream)
	tutorings.PUT("/:id", requireAuth, tutorOnly, middleware.Audit(d.logger, "update", "tutoring"), d.tutorings.Update)
	tutorings.DELETE("/:id", requireAuth, tutorOnly, middleware.Audit(d.logger, "delete", "tutoring"), d.tutorings.Delete)

	api.GET("/metrics/summary", requireAuth, middleware.RequireRoles(models.RoleAdmin), d.metrics.Summary)
}

func readinessChecks(db *sqlx.DB, client *redis.Client, metrics *service.MetricsService) map[string]handler.ReadinessCheck {
	return map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error {
			start := time.Now()
			err := db.PingContext(ctx)
			metrics.ObserveDBQuery("ping", time.Since(start))
			return err
		},
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
