package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/internal/utils"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/config"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/infrastructure/cloud"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/infrastructure/postgres/connection"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/infrastructure/postgres/repositories"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/pipelines"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/services"
)

// App wires the platform adapters into the workflow services. Both the HTTP
// server and the CLI start from it.
type App struct {
	Config    *config.Config
	Platform  *cloud.SageMakerPlatform
	Invoker   *cloud.EndpointInvoker
	awsConfig aws.Config
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	awsConfig, err := cloud.LoadConfig(ctx, cloud.Options{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretKey,
		SessionToken:    cfg.AWSSessionToken,
		Endpoint:        cfg.AWSEndpoint,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		Config:    cfg,
		Platform:  cloud.NewSageMakerPlatform(awsConfig),
		Invoker:   cloud.NewEndpointInvoker(awsConfig),
		awsConfig: awsConfig,
	}, nil
}

// OpenDatabase connects to Postgres, or returns nil when POSTGRES_HOST is
// unset.
func (a *App) OpenDatabase() (*gorm.DB, error) {
	pg := a.Config.Postgres
	if !pg.Enabled() {
		return nil, nil
	}
	db, err := connection.Init(pg.User, pg.Host, pg.Password, pg.Database, pg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// PipelineSettings loads the pipeline settings file at path, falling back to
// the configured path, and fills defaults from the environment.
func (a *App) PipelineSettings(path string) (pipelines.Settings, error) {
	if path == "" {
		path = a.Config.PipelineConfig
	}
	loaded, err := pipelines.LoadSettings(path)
	if err != nil {
		return pipelines.Settings{}, err
	}
	if loaded.Name == "" {
		loaded.Name = a.Config.PipelineName
	}
	if loaded.ModelPackageGroup == "" {
		loaded.ModelPackageGroup = a.Config.ModelPackageGroup
	}
	return loaded.WithDefaults(a.Config.AWSRegion, a.Config.S3Bucket)
}

func (a *App) PipelineDefinition(settings pipelines.Settings) (*entities.PipelineDefinition, error) {
	if err := a.Config.RequirePlatform(); err != nil {
		return nil, entities.NewConfigurationError(err.Error())
	}
	return pipelines.Build(settings, a.Config.RoleArn)
}

func (a *App) PipelineRunner() *services.PipelineRunner {
	return services.NewPipelineRunner(a.Platform, a.Config.PipelinePoll.Policy())
}

func (a *App) CleanupService() *services.CleanupService {
	return services.NewCleanupService(a.Platform, a.Config.EndpointPoll.Policy())
}

// WorkflowService builds the release workflow for the pipeline at
// pipelineConfig. Run summaries go to the artifacts bucket and, when db is
// non-nil, to the workflow_runs table.
func (a *App) WorkflowService(
	pipelineConfig string,
	db *gorm.DB,
	opts ...services.WorkflowOption,
) (*services.WorkflowService, error) {
	settings, err := a.PipelineSettings(pipelineConfig)
	if err != nil {
		return nil, entities.NewConfigurationError(err.Error())
	}
	definition, err := a.PipelineDefinition(settings)
	if err != nil {
		return nil, err
	}

	store, err := cloud.NewSummaryStore(a.awsConfig, a.Config.S3Bucket)
	if err != nil {
		return nil, entities.NewConfigurationError(err.Error())
	}
	opts = append([]services.WorkflowOption{services.WithSummaryPublisher(store)}, opts...)
	if db != nil {
		opts = append(opts, services.WithRunRepository(repositories.NewWorkflowRunRepository(db)))
	}

	endpointManager := services.NewEndpointManager(
		a.Platform,
		a.Invoker,
		a.Config.RoleArn,
		utils.GetDataCaptureUri(a.Config.S3Bucket),
		a.Config.EndpointPoll.Policy(),
	)

	logger.Info("Workflow configured",
		zap.String("pipeline", definition.Name),
		zap.String("modelPackageGroup", settings.ModelPackageGroup),
		zap.String("region", a.Config.AWSRegion),
	)

	return services.NewWorkflowService(
		workflowSettings(a.Config, settings.ModelPackageGroup),
		definition,
		a.PipelineRunner(),
		a.Platform,
		endpointManager,
		opts...,
	), nil
}

// SkippedWorkflow records runs for triggers that resolve to no stage. It
// needs neither AWS access nor the database; a run for a deploying stage
// fails with a ConfigurationError before any platform call.
func SkippedWorkflow(cfg *config.Config) *services.WorkflowService {
	return services.NewWorkflowService(workflowSettings(cfg, cfg.ModelPackageGroup), nil, nil, nil, nil)
}

func workflowSettings(cfg *config.Config, modelPackageGroup string) services.WorkflowSettings {
	return services.WorkflowSettings{
		ModelPackageGroup:       modelPackageGroup,
		EndpointName:            cfg.EndpointName,
		StagingRetentionDays:    cfg.StagingRetentionDays,
		ProductionRetentionDays: cfg.ProductionRetentionDays,
	}
}
