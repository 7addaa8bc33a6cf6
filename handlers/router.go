package handlers

import (
	"github.com/ABH36/Machine-test/accounts"
	"github.com/ABH36/Machine-test/assets"
	"github.com/ABH36/Machine-test/auth"
	"github.com/ABH36/Machine-test/catalog"
	"github.com/ABH36/Machine-test/config"
	"github.com/ABH36/Machine-test/middleware"
	"github.com/ABH36/Machine-test/orders"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Deps holds everything the HTTP surface calls into.
type Deps struct {
	Accounts *accounts.Service
	Catalog  *catalog.Service
	Orders   *orders.Service
	Assets   assets.Store
	Tokens   *auth.TokenIssuer
	Users    middleware.UserLookup
	// UploadDir is served under /uploads when set.
	UploadDir string
}

func NewRouter(deps Deps, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.AuthMiddleware(deps.Tokens, deps.Users))

	router.GET("/health", HealthCheck)
	router.GET("/metrics", middleware.PrometheusHandler())
	if deps.UploadDir != "" {
		router.Static("/uploads", deps.UploadDir)
	}

	authHandler := NewAuthHandler(deps.Accounts, logger)
	adminHandler := NewAdminHandler(deps.Accounts, logger)
	productHandler := NewProductHandler(deps.Catalog, logger)
	orderHandler := NewOrderHandler(deps.Orders, logger)
	uploadHandler := NewUploadHandler(deps.Assets, logger)

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		api.GET("/admin/stats", adminHandler.GetStats)
		api.GET("/admin/users", adminHandler.GetUsers)
		api.DELETE("/admin/users/:id", adminHandler.DeleteUser)

		api.GET("/products", productHandler.GetProducts)
		api.GET("/products/:id", productHandler.GetProduct)
		api.POST("/products", productHandler.CreateProduct)
		api.PUT("/products/:id", productHandler.UpdateProduct)
		api.DELETE("/products/:id", productHandler.DeleteProduct)
		api.GET("/vendor/products", productHandler.GetVendorProducts)

		api.POST("/orders", orderHandler.CreateOrder)
		api.GET("/orders/my", orderHandler.GetMyOrders)
		api.GET("/orders/vendor", orderHandler.GetVendorOrders)
		api.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)

		api.POST("/upload", uploadHandler.Upload)
	}

	return router
}
