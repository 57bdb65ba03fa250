package services

import (
	"context"
	"errors"

	"github.com/sagemaker-mlops/release-orchestrator/internal/retry"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

// pollError maps the outcome of a bounded wait to the workflow taxonomy.
func pollError(err error, resource, lastStatus, waitingFor string) error {
	if errors.Is(err, retry.ErrExhausted) || errors.Is(err, context.DeadlineExceeded) {
		return entities.NewTimeoutError(resource, lastStatus, waitingFor)
	}
	var we *entities.WorkflowError
	if errors.As(err, &we) {
		return err
	}
	return entities.NewInfrastructureError(resource, "wait for "+waitingFor, err)
}

func withStage(err error, stage entities.Stage) error {
	var we *entities.WorkflowError
	if errors.As(err, &we) {
		return we.WithStage(stage)
	}
	return err
}
