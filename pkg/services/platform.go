package services

import (
	"context"
	"time"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

// The platform interfaces below return (nil, nil) from Describe* calls when
// the named resource does not exist.

type PipelineClient interface {
	DescribePipeline(ctx context.Context, name string) (*entities.PipelineDefinition, error)
	CreatePipeline(ctx context.Context, definition *entities.PipelineDefinition) error
	UpdatePipeline(ctx context.Context, definition *entities.PipelineDefinition) error
	StartPipelineExecution(ctx context.Context, name string, parameters map[string]string, clientToken string) (string, error)
	DescribePipelineExecution(ctx context.Context, executionArn string) (*entities.PipelineExecution, error)
}

type ModelRegistry interface {
	DescribeModelPackage(ctx context.Context, modelPackageArn string) (*entities.ModelPackage, error)
	// LatestModelPackage returns the newest package of group with the given
	// approval status, or of any status when status is empty.
	LatestModelPackage(ctx context.Context, group string, status entities.ApprovalStatus) (*entities.ModelPackage, error)
}

type EndpointClient interface {
	DescribeModel(ctx context.Context, name string) (*entities.ModelSpec, error)
	CreateModel(ctx context.Context, model entities.ModelSpec) error
	DescribeEndpointConfig(ctx context.Context, name string) (*entities.EndpointConfig, error)
	CreateEndpointConfig(ctx context.Context, config entities.EndpointConfig) error
	DeleteEndpointConfig(ctx context.Context, name string) error
	DescribeEndpoint(ctx context.Context, name string) (*entities.Endpoint, error)
	CreateEndpoint(ctx context.Context, name, configName string) error
	UpdateEndpoint(ctx context.Context, name, configName string) error
	DeleteEndpoint(ctx context.Context, name string) error
	ListEndpoints(ctx context.Context) ([]*entities.Endpoint, error)
}

type EndpointInvoker interface {
	InvokeEndpoint(ctx context.Context, name, contentType string, body []byte) ([]byte, error)
}

type RunRepository interface {
	CreateRun(run *entities.WorkflowRun) error
	UpdateRun(run *entities.WorkflowRun) error
	GetRunByID(id string) (*entities.WorkflowRun, error)
	ListRuns(stage entities.Stage, limit int) ([]*entities.WorkflowRun, error)
	DeleteExpiredRuns(now time.Time) (int64, error)
}

// SummaryPublisher stores the summary artifact of a finished run and returns
// its location.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, run *entities.WorkflowRun, retentionDays int) (string, error)
}

type TaskManager interface {
	Start()
	AddTask(task entities.Task)
	Stop()
}
