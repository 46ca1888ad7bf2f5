// internal/api/router.go
package api

import (
	"reconciliation-service/internal/api/handlers"
	"reconciliation-service/internal/api/middleware"
	"reconciliation-service/internal/core/auth"
	"reconciliation-service/internal/core/importer"

	"github.com/gin-gonic/gin"
)

const serviceName = "reconciliation-service"

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Auth       auth.Service
	Importer   importer.Service
	Engine     handlers.Reconciler
	CSVCharset string
}

// NewRouter monta as rotas da API.
func NewRouter(deps Dependencies) *gin.Engine {
	authHandler := handlers.NewAuthHandler(deps.Auth)
	uploadHandler := handlers.NewUploadHandler(deps.Importer)
	reconHandler := handlers.NewReconciliationHandler(deps.Engine, deps.Auth, deps.CSVCharset)

	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/login", authHandler.Login)

		protected := apiV1.Group("")
		protected.Use(middleware.RequireAuth(deps.Auth))
		{
			protected.POST("/uploads", uploadHandler.HandleUpload)
			protected.GET("/dashboard", reconHandler.HandleDashboard)
			protected.GET("/pending", reconHandler.HandlePending)
			protected.GET("/pending/export.csv", reconHandler.HandleExportCSV)
			protected.GET("/pending/report.txt", reconHandler.HandleReport)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": serviceName})
	})

	return router
}
