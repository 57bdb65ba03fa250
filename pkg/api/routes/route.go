package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/api/handlers"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/api/servers"

	swaggerFiles "github.com/swaggo/files"
)

func SetupRoutes(server *servers.Server) {
	apiV1 := server.Router.Group("/api/v1")
	setupV1Routes(apiV1, server)

	server.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	server.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func setupV1Routes(router *gin.RouterGroup, server *servers.Server) {
	// Health routes
	setupHealthRoutes(router.Group("/health"))

	setupWorkflowRoutes(router.Group("/workflows"), handlers.NewWorkflowHandler(server.WorkflowService))
	setupEndpointRoutes(router.Group("/endpoints"), handlers.NewEndpointHandler(server.CleanupService))
}

func setupHealthRoutes(router *gin.RouterGroup) {
	handler := handlers.NewHealthHandler()
	router.GET("", handler.GetHealth)
}

func setupWorkflowRoutes(router *gin.RouterGroup, handler *handlers.WorkflowHandler) {
	router.POST("", handler.Create)
	router.GET("", handler.GetRuns)
	router.GET("/:id", handler.GetRunByID)
}

func setupEndpointRoutes(router *gin.RouterGroup, handler *handlers.EndpointHandler) {
	router.GET("", handler.GetEndpoints)
	router.POST("/:name/cleanup", handler.Cleanup)
}
