package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	_ "github.com/ivc-chiapas/folios-console/api/swagger"
	"github.com/ivc-chiapas/folios-console/internal/handler"
	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/repository"
	"github.com/ivc-chiapas/folios-console/internal/service"
	"github.com/ivc-chiapas/folios-console/pkg/cache"
	"github.com/ivc-chiapas/folios-console/pkg/config"
	"github.com/ivc-chiapas/folios-console/pkg/database"
	"github.com/ivc-chiapas/folios-console/pkg/export"
	"github.com/ivc-chiapas/folios-console/pkg/imageutil"
	"github.com/ivc-chiapas/folios-console/pkg/logger"
	"github.com/ivc-chiapas/folios-console/pkg/sequence"
	"github.com/ivc-chiapas/folios-console/pkg/storage"
	"github.com/ivc-chiapas/folios-console/pkg/upstream"
)

// @title Folios Console Gateway
// @version 1.0.0
// @description Operator console for the Instituto Valle de Chiapas student and folio backend
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

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

	if cfg.JWT.Secret == "" {
		logr.Fatal("JWT_SECRET must be set")
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	redisClient := connectRedis(ctx, cfg, logr)
	var sessions sessionStore = repository.NewMemorySessionRepository()
	if redisClient != nil {
		sessions = repository.NewSessionRepository(redisClient)
		defer redisClient.Close() //nolint:errcheck
	}
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	auditSvc, db := startAudit(ctx, cfg, logr)
	if db != nil {
		defer db.Close() //nolint:errcheck
	}

	client := upstream.New(cfg.Upstream, upstream.WithObserver(metrics), upstream.WithLogger(logr))
	studentRepo := repository.NewStudentRepository(client)
	paymentRepo := repository.NewPaymentRepository(client)
	userRepo := repository.NewUserRepository(client)

	tracker := sequence.NewTracker(sequence.WithIdleTTL(cfg.JWT.Expiration))
	guard := sequence.NewGuard()

	queries := service.NewQueryFilter(studentRepo, paymentRepo, cacheSvc, cfg.Cache.TTL, logr)
	studentSvc := service.NewStudentService(studentRepo, queries, auditSvc, guard, validate, logr).WithLocation(cfg.Location)
	paymentSvc := service.NewPaymentService(paymentRepo, queries, auditSvc, guard, validate, logr)
	userSvc := service.NewUserService(userRepo, logr)
	viewSvc := service.NewViewService(queries, userSvc, tracker, logr)
	authSvc := service.NewAuthService(userRepo, sessions, auditSvc, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})

	receiptSvc, cleanup := newReceiptService(cfg, logr, paymentRepo, queries, metrics, auditSvc)
	if cleanup != nil {
		defer cleanup.Stop()
	}

	var auditHandler *handler.AuditHandler
	if auditSvc != nil {
		auditHandler = handler.NewAuditHandler(auditSvc)
	} else {
		auditHandler = handler.NewAuditHandler(nil)
	}

	r := newRouter(cfg, logr, metrics, authSvc, routeHandlers{
		auth:     handler.NewAuthHandler(authSvc, viewSvc),
		views:    handler.NewViewHandler(viewSvc),
		students: handler.NewStudentHandler(queries, studentSvc),
		payments: handler.NewPaymentHandler(queries, paymentSvc),
		receipts: handler.NewReceiptHandler(receiptSvc),
		users:    handler.NewUserHandler(userSvc),
		audit:    auditHandler,
		metrics:  handler.NewMetricsHandler(metrics),
	}, auditSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if auditSvc != nil {
		auditSvc.Stop()
	}
}

// connectRedis returns nil when Redis is disabled or unreachable; sessions
// then live in memory and list caching is off.
func connectRedis(ctx context.Context, cfg *config.Config, logr *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		logr.Info("redis disabled, using in-memory sessions")
		return nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, using in-memory sessions", zap.Error(err))
		return nil
	}
	return client
}

// startAudit opens the audit database and starts its writers. Audit is
// optional; any failure leaves it disabled.
func startAudit(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*service.AuditService, *sqlx.DB) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Warn("audit database unavailable, audit disabled", zap.Error(err))
		return nil, nil
	}
	repo := repository.NewAuditRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		logr.Warn("audit schema setup failed, audit disabled", zap.Error(err))
		_ = db.Close()
		return nil, nil
	}
	svc := service.NewAuditService(repo, cfg.Audit.Workers, logr)
	svc.Start(context.Background())
	return svc, db
}

// newReceiptService builds the receipt service. Saved receipts and their
// cleanup job are only enabled when a storage directory and signing secret
// are configured.
func newReceiptService(cfg *config.Config, logr *zap.Logger, payments *repository.PaymentRepository, queries *service.QueryFilter, metrics *service.MetricsService, audit *service.AuditService) (*service.ReceiptService, *cron.Cron) {
	renderer := export.NewReceiptRenderer()
	logos := imageutil.NewLogoLoader(cfg.Receipts.LogoSource, nil)
	receiptCfg := service.ReceiptConfig{APIPrefix: cfg.APIPrefix, Retention: cfg.Receipts.SignedURLTTL, Location: cfg.Location}

	if cfg.Receipts.StorageDir == "" || cfg.Receipts.SignedURLSecret == "" {
		logr.Info("receipt storage not configured, saved receipts disabled")
		return service.NewReceiptService(payments, queries, renderer, logos, nil, nil, metrics, audit, logr, receiptCfg), nil
	}
	store, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Warn("receipt storage unavailable, saved receipts disabled", zap.Error(err))
		return service.NewReceiptService(payments, queries, renderer, logos, nil, nil, metrics, audit, logr, receiptCfg), nil
	}
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)
	svc := service.NewReceiptService(payments, queries, renderer, logos, store, signer, metrics, audit, logr, receiptCfg)

	if cfg.Receipts.CleanupSchedule == "" {
		return svc, nil
	}
	scheduler, err := svc.StartCleanup(cfg.Receipts.CleanupSchedule)
	if err != nil {
		logr.Warn("receipt cleanup not scheduled", zap.Error(err))
		return svc, nil
	}
	return svc, scheduler
}
