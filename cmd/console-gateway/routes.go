package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/internal/handler"
	"github.com/ivc-chiapas/folios-console/internal/middleware"
	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/service"
	"github.com/ivc-chiapas/folios-console/pkg/config"
	"github.com/ivc-chiapas/folios-console/pkg/logger"
	corsmiddleware "github.com/ivc-chiapas/folios-console/pkg/middleware/cors"
	reqidmiddleware "github.com/ivc-chiapas/folios-console/pkg/middleware/requestid"
)

type routeHandlers struct {
	auth     *handler.AuthHandler
	views    *handler.ViewHandler
	students *handler.StudentHandler
	payments *handler.PaymentHandler
	receipts *handler.ReceiptHandler
	users    *handler.UserHandler
	audit    *handler.AuditHandler
	metrics  *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, auth *service.AuthService, h routeHandlers, audit *service.AuditService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics, cfg.APIPrefix))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)
	api.GET("/receipts/download/:token", h.receipts.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))
	secured.POST("/auth/logout", h.auth.Logout)
	secured.GET("/auth/me", h.auth.Me)
	secured.GET("/views", h.views.Load)
	secured.GET("/students", h.students.List)
	secured.GET("/students/search", h.students.Search)
	secured.GET("/students/levels", h.students.Levels)
	secured.GET("/students/:id", h.students.Get)
	secured.GET("/payments", h.payments.List)
	secured.GET("/payments/:id/receipt", h.receipts.Preview)
	secured.POST("/payments/:id/receipt", h.receipts.Save)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/students", h.students.Create)
	admin.PUT("/students/:id", h.students.Update)
	admin.DELETE("/students/:id", h.students.Delete)
	admin.POST("/payments", h.payments.Create)
	admin.DELETE("/payments/:id", h.payments.Delete)
	admin.GET("/payments/export", middleware.Audit(audit, models.AuditActionPaymentExport, "payments"), h.payments.Export)
	admin.GET("/users", h.users.List)
	admin.GET("/audit-logs", h.audit.List)
	admin.GET("/metrics/summary", h.metrics.Summary)

	return r
}
