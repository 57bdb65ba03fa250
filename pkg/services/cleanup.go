package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sagemaker-mlops/release-orchestrator/internal/consts"
	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/internal/retry"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/metrics"
)

type CleanupService struct {
	endpoints EndpointClient
	policy    retry.Policy
}

func NewCleanupService(endpoints EndpointClient, policy retry.Policy) *CleanupService {
	return &CleanupService{
		endpoints: endpoints,
		policy:    policy,
	}
}

// Cleanup deletes an endpoint and its config. Unless confirmationToken is
// exactly DELETE nothing is sent to the platform. A missing endpoint is a
// successful no-op.
func (s *CleanupService) Cleanup(ctx context.Context, endpointName, confirmationToken string) (*entities.CleanupResult, error) {
	if confirmationToken != consts.CleanupConfirmationToken {
		metrics.ObserveCleanup("mismatch")
		logger.Warn("Cleanup not confirmed, nothing deleted", zap.String("endpoint", endpointName))
		return nil, entities.NewConfirmationMismatchError(endpointName)
	}
	if endpointName == "" {
		return nil, entities.NewConfigurationError("endpoint name is required")
	}

	endpoint, err := s.endpoints.DescribeEndpoint(ctx, endpointName)
	if err != nil {
		metrics.ObserveCleanup("error")
		return nil, entities.NewInfrastructureError(endpointName, "describe endpoint", err)
	}
	if endpoint == nil {
		metrics.ObserveCleanup("noop")
		logger.Info("Endpoint does not exist, nothing to clean up", zap.String("endpoint", endpointName))
		return &entities.CleanupResult{EndpointName: endpointName, NoOp: true}, nil
	}

	result := &entities.CleanupResult{EndpointName: endpointName, ConfigName: endpoint.ConfigName}

	if endpoint.Status != entities.EndpointStatusDeleting {
		logger.Info("Deleting endpoint", zap.String("endpoint", endpointName))
		if err := s.endpoints.DeleteEndpoint(ctx, endpointName); err != nil {
			metrics.ObserveCleanup("error")
			return nil, entities.NewInfrastructureError(endpointName, "delete endpoint", err)
		}
	}
	if err := s.waitForDeletion(ctx, endpointName); err != nil {
		metrics.ObserveCleanup("error")
		return nil, err
	}

	if endpoint.ConfigName != "" {
		logger.Info("Deleting endpoint config", zap.String("config", endpoint.ConfigName))
		if err := s.endpoints.DeleteEndpointConfig(ctx, endpoint.ConfigName); err != nil {
			metrics.ObserveCleanup("error")
			return nil, entities.NewInfrastructureError(endpoint.ConfigName, "delete endpoint config", err)
		}
	}

	metrics.ObserveCleanup("deleted")
	logger.Info("Cleanup complete", zap.String("endpoint", endpointName))
	return result, nil
}

// ListEndpoints returns every endpoint in the account and region.
func (s *CleanupService) ListEndpoints(ctx context.Context) ([]*entities.Endpoint, error) {
	endpoints, err := s.endpoints.ListEndpoints(ctx)
	if err != nil {
		return nil, entities.NewInfrastructureError("endpoints", "list endpoints", err)
	}
	return endpoints, nil
}

func (s *CleanupService) waitForDeletion(ctx context.Context, endpointName string) error {
	defer metrics.ObserveStep("cleanup", time.Now())

	last := ""
	_, err := retry.Blocking(ctx, s.policy, func(ctx context.Context) (struct{}, error) {
		metrics.ObservePoll("endpoint_deletion")
		e, err := s.endpoints.DescribeEndpoint(ctx, endpointName)
		if err != nil {
			return struct{}{}, entities.NewInfrastructureError(endpointName, "describe endpoint", err)
		}
		if e == nil {
			return struct{}{}, nil
		}
		last = string(e.Status)
		return struct{}{}, retry.ErrRetry
	})
	if err != nil {
		return pollError(err, endpointName, last, "endpoint deletion")
	}
	return nil
}
