package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/api/handlers"
	"github.com/reimbly/backend/internal/api/middleware"
	"github.com/reimbly/backend/internal/config"
	"github.com/reimbly/backend/internal/database"
	"github.com/reimbly/backend/internal/metrics"
	"github.com/reimbly/backend/internal/models"
	"github.com/reimbly/backend/internal/services"
)

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) error {
	if err := database.Migrate(db); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	router.GET("/api/v1/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Uploaded receipts are served statically; the API only hands out the
	// /uploads/<name> URLs in receipt descriptors.
	router.Static("/uploads", cfg.UploadDir)

	recorder := services.NewAuditRecorder(db)
	notifier := services.NewNotificationService(cfg.NotifyURLs)
	authService := services.NewAuthService(db, cfg, recorder)
	receiptService := services.NewReceiptService(cfg.UploadDir)
	expenseService := services.NewExpenseService(db, recorder, notifier)
	analyticsService := services.NewAnalyticsService(db)
	exportService := services.NewExportService(analyticsService)

	api := router.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(authService)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authMiddleware := middleware.AuthMiddleware(authService)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.PUT("/auth/me", authHandler.UpdateProfile)

		expenseHandler := handlers.NewExpenseHandler(expenseService, receiptService)
		expenseHandler.RegisterRoutes(protected)
	}

	adminOnly := api.Group("/")
	adminOnly.Use(authMiddleware, middleware.RequireRole(models.RoleAdmin))
	{
		adminHandler := handlers.NewAdminHandler(db, recorder, expenseService, analyticsService)
		adminHandler.RegisterRoutes(adminOnly.Group("/admin"))

		analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, exportService)
		analyticsHandler.RegisterRoutes(adminOnly.Group("/expenses/analytics"))

		auditLogHandler := handlers.NewAuditLogHandler(recorder)
		auditLogHandler.RegisterRoutes(adminOnly.Group("/audit-logs"))
	}

	return nil
}
