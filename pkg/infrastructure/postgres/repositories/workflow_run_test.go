package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

func TestSchemaRoundTripKeepsIndexedColumns(t *testing.T) {
	finished := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	run := &entities.WorkflowRun{
		ID:     uuid.New(),
		Stage:  entities.StageProduction,
		Status: entities.RunStatusHalted,
		Request: entities.DeploymentRequest{
			Event:         entities.DeploymentEvent{Name: "push", Ref: "refs/heads/main"},
			InstanceCount: 1,
		},
		Summary: entities.RunSummary{
			Stage:           entities.StageProduction,
			ModelPackageArn: "pkg/4",
			ExecutionArn:    "exec/9",
			EndpointName:    "wine-quality-endpoint",
			ErrorKind:       entities.ErrorKindApprovalRequired,
		},
		StartedAt:  finished.Add(-time.Hour),
		FinishedAt: &finished,
		ExpiresAt:  finished.Add(90 * 24 * time.Hour),
	}

	row, err := toSchema(run)
	require.NoError(t, err)
	assert.Equal(t, "workflow_runs", row.TableName())
	assert.Equal(t, "refs/heads/main", row.Ref)
	assert.Equal(t, "push", row.Event)
	assert.Equal(t, "ApprovalRequired", row.ErrorKind)
	assert.Equal(t, "exec/9", row.ExecutionArn)

	back, err := toEntity(row)
	require.NoError(t, err)
	assert.Equal(t, run, back)
}

func TestToEntityRejectsCorruptSummary(t *testing.T) {
	row, err := toSchema(&entities.WorkflowRun{ID: uuid.New()})
	require.NoError(t, err)
	row.Summary = []byte(`{"stage":`)

	_, err = toEntity(row)
	assert.ErrorContains(t, err, "failed to unmarshal run summary")
}
