package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"go.uber.org/zap"

	"github.com/sagemaker-mlops/release-orchestrator/docs"
	"github.com/sagemaker-mlops/release-orchestrator/internal/app"
	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/api/routes"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/api/servers"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/config"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/services"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/taskmanager"
)

// @title           Release Orchestrator
// @version         1.0
// @description     Model release workflow API

// @host      localhost:${PORT}
// @BasePath  /api/v1

// @securityDefinitions.basic  NoAuth
func main() {

	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to load AWS configuration", zap.Error(err))
	}

	if !cfg.Postgres.Enabled() {
		logger.Fatal("POSTGRES_HOST environment variable not set")
	}
	postgresDB, err := application.OpenDatabase()
	if err != nil {
		logger.Fatal("Failed to connect to postgres", zap.Error(err))
	}

	taskManager := taskmanager.NewTaskManager(cfg.Workers, cfg.Workers*4)
	defer taskManager.Stop()

	workflowService, err := application.WorkflowService("", postgresDB, services.WithTaskManager(taskManager))
	if err != nil {
		logger.Fatal("Failed to configure workflow", zap.Error(err))
	}
	workflowService.StartHousekeeping(ctx, cfg.HousekeepingInterval)

	// programmatically set swagger info
	docs.SwaggerInfo.Title = "Release Orchestrator"
	docs.SwaggerInfo.Description = "Model release workflow API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Schemes = []string{"http"}
	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%s", cfg.Port)
	docs.SwaggerInfo.BasePath = "/api/v1"

	server := servers.NewServer(postgresDB, workflowService, application.CleanupService())
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"*"}

	server.Use(cors.New(corsConfig))

	routes.SetupRoutes(server)

	err = server.Start(cfg.Port)
	if err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		log.Fatal(err)
	}
}
