// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockflow/internal/domain/account"
	"stockflow/internal/domain/catalogs/company"
	"stockflow/internal/domain/catalogs/outlet"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/catalogs/warehouse"
	"stockflow/internal/domain/layaway"
	"stockflow/internal/domain/purge"
	"stockflow/internal/domain/reports"
	"stockflow/internal/domain/sales"
	"stockflow/internal/domain/shipment"
	"stockflow/internal/infrastructure/http/v1/handlers"
	"stockflow/internal/infrastructure/http/v1/middleware"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/pkg/logger"
)

var (
	staff     = []string{string(account.RoleAdmin), string(account.RoleManager)}
	adminOnly = []string{string(account.RoleAdmin)}
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	Pool   *pgxpool.Pool
	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	Accounts   *account.Service
	Company    *company.Service
	Products   *product.Service
	Warehouses *warehouse.Service
	Outlets    *outlet.Service
	Shipments  *shipment.Service
	Sales      *sales.Service
	Layaways   *layaway.Service
	Purge      *purge.Service
	Reports    *reports.Service
	Audit      *postgres.AuditTrail
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints, no auth
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.Accounts)

	api := router.Group("/api/v1")

	// Public auth endpoints
	api.POST("/auth/login", authHandler.Login)

	// Everything else requires a valid token
	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))

	registerAuthRoutes(protected, authHandler)
	registerCompanyRoutes(protected, base, cfg)
	registerProductRoutes(protected, base, cfg)
	registerWarehouseRoutes(protected, base, cfg)
	registerOutletRoutes(protected, base, cfg)
	registerShipmentRoutes(protected, base, cfg)
	registerSalesRoutes(protected, base, cfg)
	registerLayawayRoutes(protected, base, cfg)
	registerReportRoutes(protected, base, cfg)

	if cfg.Audit != nil {
		auditHandler := handlers.NewAuditHandler(base, cfg.Audit)
		protected.GET("/audit/:entityType/:id", middleware.RequireRole(adminOnly...), auditHandler.EntityHistory)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	rg.POST("/auth/register", middleware.RequireRole(adminOnly...), h.Register)
	rg.GET("/auth/me", h.Me)
	rg.POST("/auth/change-password", h.ChangePassword)

	accounts := rg.Group("/accounts", middleware.RequireRole(adminOnly...))
	{
		accounts.GET("", h.List)
		accounts.GET("/:id", h.Get)
		accounts.PUT("/:id", h.Update)
		accounts.POST("/:id/deactivate", h.Deactivate)
		accounts.DELETE("/:id", h.Delete)
	}
}

func registerCompanyRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewCompanyHandler(base, cfg.Company)
	rg.GET("/company", h.Get)
	rg.PUT("/company", middleware.RequireRole(adminOnly...), h.Update)
}

func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProductHandler(base, cfg.Products, cfg.Purge)
	products := rg.Group("/products")
	{
		products.GET("", h.List)
		products.GET("/:id", h.Get)
		products.GET("/:id/restocks", h.RestockHistory)
		products.POST("", middleware.RequireRole(staff...), h.Create)
		products.PUT("/:id", middleware.RequireRole(staff...), h.Update)
		products.POST("/:id/restock", middleware.RequireRole(staff...), h.Restock)
		products.DELETE("/:id", middleware.RequireRole(adminOnly...), h.Delete)
	}
}

func registerWarehouseRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewWarehouseHandler(base, cfg.Warehouses, cfg.Purge, cfg.Reports)
	warehouses := rg.Group("/warehouses")
	{
		warehouses.GET("", h.List)
		warehouses.GET("/:id", h.Get)
		warehouses.GET("/:id/stock", h.Stock)
		warehouses.POST("", middleware.RequireRole(staff...), h.Create)
		warehouses.PUT("/:id", middleware.RequireRole(staff...), h.Update)
		warehouses.DELETE("/:id", middleware.RequireRole(adminOnly...), h.Delete)
	}
}

func registerOutletRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewOutletHandler(base, cfg.Outlets, cfg.Purge, cfg.Reports)
	outlets := rg.Group("/outlets")
	{
		outlets.GET("", h.List)
		outlets.GET("/:id", h.Get)
		outlets.GET("/:id/overview", h.Overview)
		outlets.POST("", middleware.RequireRole(staff...), h.Create)
		outlets.PUT("/:id", middleware.RequireRole(staff...), h.Update)
		outlets.POST("/:id/reps", middleware.RequireRole(staff...), h.AssignRep)
		outlets.DELETE("/:id/reps/:repId", middleware.RequireRole(staff...), h.UnassignRep)
		outlets.DELETE("/:id", middleware.RequireRole(adminOnly...), h.Delete)
	}
}

func registerShipmentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewShipmentHandler(base, cfg.Shipments)
	shipments := rg.Group("/shipments")
	{
		shipments.GET("", h.List)
		shipments.GET("/:id", h.Get)
		shipments.POST("", middleware.RequireRole(staff...), h.Create)
		shipments.PUT("/:id", middleware.RequireRole(staff...), h.Edit)
		shipments.POST("/:id/receive", middleware.RequireRole(staff...), h.Receive)
		shipments.POST("/:id/reject", middleware.RequireRole(staff...), h.Reject)
		shipments.POST("/:id/cancel", middleware.RequireRole(staff...), h.Cancel)
	}
}

func registerSalesRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSalesHandler(base, cfg.Sales)
	salesGroup := rg.Group("/sales")
	{
		salesGroup.POST("", h.Record)
		salesGroup.GET("", h.List)
		salesGroup.GET("/:transactionId", h.GetTransaction)
		salesGroup.PUT("/:transactionId", middleware.RequireRole(staff...), h.EditTransaction)
		salesGroup.DELETE("/:transactionId", middleware.RequireRole(adminOnly...), h.DeleteTransaction)
	}
	rg.POST("/sales/lines/:id/reverse", middleware.RequireRole(staff...), h.Reverse)
}

func registerLayawayRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewLayawayHandler(base, cfg.Layaways)
	layaways := rg.Group("/layaways")
	{
		layaways.POST("", h.Create)
		layaways.GET("", h.List)
		layaways.GET("/stats", h.Stats)
		layaways.GET("/:id", h.Get)
		layaways.POST("/:id/payments", h.AddPayment)
		layaways.PUT("/:id/items", h.UpdateItems)
		layaways.POST("/:id/complete", h.Complete)
		layaways.POST("/:id/cancel", h.Cancel)
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReportsHandler(base, cfg.Reports)
	reportsGroup := rg.Group("/reports")
	{
		reportsGroup.GET("/company-overview", h.CompanyOverview)
		reportsGroup.GET("/sales-summary", h.SalesSummary)
	}
}
