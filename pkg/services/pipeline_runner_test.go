package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

func testDefinition() *entities.PipelineDefinition {
	return &entities.PipelineDefinition{
		Name:     "WineQualityPipeline",
		RoleArn:  testRoleArn,
		Document: []byte(`{"Version":"2020-12-01"}`),
	}
}

func TestRunPipelineCreatesThenUpdates(t *testing.T) {
	platform := newFakePlatform()
	runner := NewPipelineRunner(platform, fastPolicy)

	execution, err := runner.RunPipeline(context.Background(), entities.StageStaging, testDefinition())
	require.NoError(t, err)
	assert.Equal(t, entities.ExecutionStatusSucceeded, execution.Status)
	assert.Equal(t, 1, platform.count("CreatePipeline"))

	_, err = runner.RunPipeline(context.Background(), entities.StageStaging, testDefinition())
	require.NoError(t, err)
	assert.Equal(t, 1, platform.count("CreatePipeline"))
	assert.Equal(t, 1, platform.count("UpdatePipeline"))
	assert.Equal(t, 2, platform.count("StartPipelineExecution"))
}

func TestRunPipelineReportsFailureReason(t *testing.T) {
	platform := newFakePlatform()
	platform.executionStatuses = []entities.ExecutionStatus{entities.ExecutionStatusExecuting, entities.ExecutionStatusFailed}
	platform.failureReason = "Step TrainModel failed: AlgorithmError"
	runner := NewPipelineRunner(platform, fastPolicy)

	execution, err := runner.RunPipeline(context.Background(), entities.StageProduction, testDefinition())
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrExecutionFailed)
	assert.Contains(t, err.Error(), "AlgorithmError")
	assert.Contains(t, err.Error(), "stage=production")
	assert.Contains(t, err.Error(), "status=Failed")
	require.NotNil(t, execution)
	assert.Equal(t, entities.ExecutionStatusFailed, execution.Status)
}

func TestRunPipelineStoppedIsExecutionFailed(t *testing.T) {
	platform := newFakePlatform()
	platform.executionStatuses = []entities.ExecutionStatus{entities.ExecutionStatusStopping, entities.ExecutionStatusStopped}
	runner := NewPipelineRunner(platform, fastPolicy)

	_, err := runner.RunPipeline(context.Background(), entities.StageStaging, testDefinition())
	assert.ErrorIs(t, err, entities.ErrExecutionFailed)
}

func TestRunPipelineTimesOutLeavingExecutionRunning(t *testing.T) {
	platform := newFakePlatform()
	platform.executionStatuses = []entities.ExecutionStatus{entities.ExecutionStatusExecuting}
	runner := NewPipelineRunner(platform, fastPolicy)

	execution, err := runner.RunPipeline(context.Background(), entities.StageStaging, testDefinition())
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrTimeout)
	assert.Contains(t, err.Error(), "status=Executing")
	require.NotNil(t, execution)
	assert.Equal(t, entities.ExecutionStatusExecuting, execution.Status)
	assert.Equal(t, fastPolicy.MaxAttempts, platform.count("DescribePipelineExecution"))
}

func TestRunPipelinePlatformErrorIsInfrastructure(t *testing.T) {
	platform := newFakePlatform()
	platform.pipelineErr = errors.New("AccessDeniedException: not authorized")
	runner := NewPipelineRunner(platform, fastPolicy)

	_, err := runner.RunPipeline(context.Background(), entities.StageStaging, testDefinition())
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInfrastructure)
	assert.Equal(t, 1, platform.count("DescribePipeline"))
	assert.Zero(t, platform.count("StartPipelineExecution"))
}

func TestUpsertPipelineRequiresRole(t *testing.T) {
	platform := newFakePlatform()
	runner := NewPipelineRunner(platform, fastPolicy)

	def := testDefinition()
	def.RoleArn = ""
	err := runner.UpsertPipeline(context.Background(), def)
	assert.ErrorIs(t, err, entities.ErrConfiguration)
	assert.Zero(t, platform.totalCalls())
}
