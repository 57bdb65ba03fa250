package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/internal/retry"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/metrics"
)

type PipelineRunner struct {
	client PipelineClient
	policy retry.Policy
}

func NewPipelineRunner(client PipelineClient, policy retry.Policy) *PipelineRunner {
	return &PipelineRunner{
		client: client,
		policy: policy,
	}
}

// UpsertPipeline creates the pipeline or replaces its definition in place.
func (r *PipelineRunner) UpsertPipeline(ctx context.Context, definition *entities.PipelineDefinition) error {
	if definition == nil || definition.Name == "" {
		return entities.NewConfigurationError("pipeline definition must have a name")
	}
	if definition.RoleArn == "" {
		return entities.NewConfigurationError("pipeline definition must have an execution role")
	}

	existing, err := r.client.DescribePipeline(ctx, definition.Name)
	if err != nil {
		return entities.NewInfrastructureError(definition.Name, "describe pipeline", err)
	}

	if existing == nil {
		logger.Info("Creating pipeline", zap.String("pipeline", definition.Name))
		if err := r.client.CreatePipeline(ctx, definition); err != nil {
			return entities.NewInfrastructureError(definition.Name, "create pipeline", err)
		}
		return nil
	}

	logger.Info("Updating pipeline", zap.String("pipeline", definition.Name))
	if err := r.client.UpdatePipeline(ctx, definition); err != nil {
		return entities.NewInfrastructureError(definition.Name, "update pipeline", err)
	}
	return nil
}

// RunPipeline upserts definition, starts one execution and waits for it to
// reach a terminal status. An execution still running at the poll ceiling is
// left running and reported as a TimeoutError.
func (r *PipelineRunner) RunPipeline(
	ctx context.Context,
	stage entities.Stage,
	definition *entities.PipelineDefinition,
) (*entities.PipelineExecution, error) {
	defer metrics.ObserveStep("pipeline", time.Now())

	if err := r.UpsertPipeline(ctx, definition); err != nil {
		return nil, withStage(err, stage)
	}

	executionArn, err := r.client.StartPipelineExecution(ctx, definition.Name, definition.Parameters, uuid.NewString())
	if err != nil {
		return nil, withStage(entities.NewInfrastructureError(definition.Name, "start pipeline execution", err), stage)
	}
	logger.Info("Pipeline execution started",
		zap.String("stage", stage.String()),
		zap.String("pipeline", definition.Name),
		zap.String("executionArn", executionArn),
	)

	execution, err := r.WaitForExecution(ctx, executionArn)
	if err != nil {
		return execution, withStage(err, stage)
	}
	return execution, nil
}

// WaitForExecution polls executionArn until it is terminal. Only Succeeded
// is returned without error.
func (r *PipelineRunner) WaitForExecution(ctx context.Context, executionArn string) (*entities.PipelineExecution, error) {
	var last *entities.PipelineExecution
	execution, err := retry.Blocking(ctx, r.policy, func(ctx context.Context) (*entities.PipelineExecution, error) {
		metrics.ObservePoll("pipeline_execution")
		e, err := r.client.DescribePipelineExecution(ctx, executionArn)
		if err != nil {
			return nil, entities.NewInfrastructureError(executionArn, "describe pipeline execution", err)
		}
		if e == nil {
			return nil, entities.NewInfrastructureError(executionArn, "describe pipeline execution", errors.New("execution not found"))
		}
		last = e
		logger.Debug("Pipeline execution status", zap.String("executionArn", executionArn), zap.String("status", string(e.Status)))
		if !e.Status.IsTerminal() {
			return e, retry.ErrRetry
		}
		return e, nil
	})
	if err != nil {
		status := ""
		if last != nil {
			status = string(last.Status)
		}
		return last, pollError(err, executionArn, status, "pipeline execution to finish")
	}

	if execution.Status != entities.ExecutionStatusSucceeded {
		reason := execution.FailureReason
		if reason == "" {
			reason = fmt.Sprintf("pipeline execution ended with status %s", execution.Status)
		}
		logger.Error("Pipeline execution did not succeed",
			zap.String("executionArn", executionArn),
			zap.String("status", string(execution.Status)),
			zap.String("reason", reason),
		)
		return execution, entities.NewExecutionFailedError(executionArn, execution.Status, reason)
	}

	logger.Info("Pipeline execution succeeded", zap.String("executionArn", executionArn))
	return execution, nil
}
