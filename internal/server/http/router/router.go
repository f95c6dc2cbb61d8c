package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/orderdesk/backoffice/internal/server/http/handlers"
	"github.com/orderdesk/backoffice/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.BackofficeFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	allocationHandler := handlers.NewAllocationHandler(facade)
	settlementHandler := handlers.NewSettlementHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)

	api := engine.Group("/api")
	api.POST("/allocations", allocationHandler.Allocate)
	api.POST("/settlements/compute", settlementHandler.Compute)
	api.GET("/settlements", settlementHandler.Get)
	api.POST("/orders", orderHandler.Ingest)
	api.GET("/orders", orderHandler.List)

	engine.GET("/healthz", func(c *gin.Context) {
		if err := facade.Ping(c.Request.Context()); err != nil {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	})

	return engine
}
