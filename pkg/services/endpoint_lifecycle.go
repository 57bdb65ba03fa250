package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sagemaker-mlops/release-orchestrator/internal/consts"
	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/internal/retry"
	"github.com/sagemaker-mlops/release-orchestrator/internal/utils"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/metrics"
)

// SmokeTestPayload is the wine sample sent to a freshly deployed endpoint.
var SmokeTestPayload = SmokeTestRequest{
	Instances: [][]float64{
		{7.4, 0.7, 0.0, 1.9, 0.076, 11.0, 34.0, 0.9978, 3.51, 0.56, 9.4},
		{7.8, 0.88, 0.0, 2.6, 0.098, 25.0, 67.0, 0.9968, 3.2, 0.68, 9.8},
		{7.0, 0.27, 0.36, 20.7, 0.045, 45.0, 170.0, 1.001, 3.0, 0.45, 8.8},
	},
}

type SmokeTestRequest struct {
	Instances [][]float64 `json:"instances"`
}

type SmokeTestResponse struct {
	Predictions   []json.RawMessage `json:"predictions"`
	Probabilities []json.RawMessage `json:"probabilities,omitempty"`
}

type EndpointManager struct {
	endpoints EndpointClient
	invoker   EndpointInvoker
	roleArn   string
	// dataCaptureUri enables request/response capture when set.
	dataCaptureUri string
	policy         retry.Policy
}

func NewEndpointManager(
	endpoints EndpointClient,
	invoker EndpointInvoker,
	roleArn string,
	dataCaptureUri string,
	policy retry.Policy,
) *EndpointManager {
	return &EndpointManager{
		endpoints:      endpoints,
		invoker:        invoker,
		roleArn:        roleArn,
		dataCaptureUri: dataCaptureUri,
		policy:         policy,
	}
}

// DeployEndpoint brings endpointName to the desired serving state and smoke
// tests it. An absent endpoint is created, one already on the desired config
// is left untouched, any other is updated in place. A failed smoke test
// leaves the endpoint as it is.
func (m *EndpointManager) DeployEndpoint(
	ctx context.Context,
	endpointName string,
	modelPackageArn string,
	instanceType string,
	instanceCount int,
) (*entities.Endpoint, error) {
	defer metrics.ObserveStep("endpoint", time.Now())

	if instanceType == "" {
		instanceType = consts.DefaultInstanceType
	}
	if err := m.validate(endpointName, modelPackageArn, instanceCount); err != nil {
		return nil, err
	}

	fingerprint := utils.DeploymentFingerprint(modelPackageArn, instanceType, instanceCount)
	modelName := utils.GetModelName(endpointName, fingerprint)
	configName := utils.GetEndpointConfigName(endpointName, fingerprint)

	if err := m.ensureModel(ctx, modelName, modelPackageArn); err != nil {
		return nil, err
	}
	if err := m.ensureEndpointConfig(ctx, configName, modelName, instanceType, instanceCount); err != nil {
		return nil, err
	}

	endpoint, err := m.endpoints.DescribeEndpoint(ctx, endpointName)
	if err != nil {
		return nil, entities.NewInfrastructureError(endpointName, "describe endpoint", err)
	}

	switch {
	case endpoint == nil:
		logger.Info("Creating endpoint", zap.String("endpoint", endpointName), zap.String("config", configName))
		if err := m.endpoints.CreateEndpoint(ctx, endpointName, configName); err != nil {
			return nil, entities.NewInfrastructureError(endpointName, "create endpoint", err)
		}
	case endpoint.ConfigName == configName:
		logger.Info("Endpoint already uses the desired config",
			zap.String("endpoint", endpointName),
			zap.String("config", configName),
			zap.String("status", string(endpoint.Status)),
		)
	default:
		if endpoint.Status == entities.EndpointStatusFailed {
			e := failedEndpointError(endpoint)
			e.Reason += ", run cleanup before redeploying"
			return endpoint, e
		}
		if endpoint.Status != entities.EndpointStatusInService {
			// An update is only accepted once the previous change has settled.
			if _, err := m.WaitForInService(ctx, endpointName); err != nil {
				return nil, err
			}
		}
		logger.Info("Updating endpoint",
			zap.String("endpoint", endpointName),
			zap.String("fromConfig", endpoint.ConfigName),
			zap.String("toConfig", configName),
		)
		if err := m.endpoints.UpdateEndpoint(ctx, endpointName, configName); err != nil {
			return nil, entities.NewInfrastructureError(endpointName, "update endpoint", err)
		}
	}

	endpoint, err = m.WaitForInService(ctx, endpointName)
	if err != nil {
		return endpoint, err
	}
	// A failed update is rolled back by the platform to the previous config,
	// which comes back InService.
	if endpoint.ConfigName != configName {
		return endpoint, configMismatchError(endpoint, configName)
	}
	if endpoint.InstanceType == "" {
		endpoint.InstanceType = instanceType
	}
	if endpoint.InstanceCount == 0 {
		endpoint.InstanceCount = instanceCount
	}

	if err := m.SmokeTest(ctx, endpointName); err != nil {
		logger.Error("Smoke test failed, endpoint left in place for inspection",
			zap.String("endpoint", endpointName),
			zap.Error(err),
		)
		return endpoint, err
	}

	logger.Info("Endpoint deployed", zap.String("endpoint", endpointName), zap.String("config", configName))
	return endpoint, nil
}

// WaitForInService polls the endpoint until it is InService. A Failed
// endpoint or one that disappears is an InfrastructureError.
func (m *EndpointManager) WaitForInService(ctx context.Context, endpointName string) (*entities.Endpoint, error) {
	var last *entities.Endpoint
	endpoint, err := retry.Blocking(ctx, m.policy, func(ctx context.Context) (*entities.Endpoint, error) {
		metrics.ObservePoll("endpoint")
		e, err := m.endpoints.DescribeEndpoint(ctx, endpointName)
		if err != nil {
			return nil, entities.NewInfrastructureError(endpointName, "describe endpoint", err)
		}
		if e == nil {
			return nil, &entities.WorkflowError{
				Kind:     entities.ErrorKindInfrastructure,
				Resource: endpointName,
				Status:   string(entities.EndpointStatusAbsent),
				Reason:   "endpoint disappeared while waiting for InService",
			}
		}
		last = e
		logger.Debug("Endpoint status", zap.String("endpoint", endpointName), zap.String("status", string(e.Status)))

		switch e.Status {
		case entities.EndpointStatusInService:
			return e, nil
		case entities.EndpointStatusFailed:
			return e, failedEndpointError(e)
		default:
			return e, retry.ErrRetry
		}
	})
	if err != nil {
		status := ""
		if last != nil {
			status = string(last.Status)
		}
		return last, pollError(err, endpointName, status, "endpoint to be InService")
	}
	return endpoint, nil
}

// SmokeTest invokes the endpoint once with SmokeTestPayload and checks that
// every instance got a prediction.
func (m *EndpointManager) SmokeTest(ctx context.Context, endpointName string) error {
	body, err := json.Marshal(SmokeTestPayload)
	if err != nil {
		return fmt.Errorf("failed to marshal smoke test payload: %w", err)
	}

	raw, err := m.invoker.InvokeEndpoint(ctx, endpointName, consts.JSONContentType, body)
	if err != nil {
		e := entities.NewHealthCheckFailedError(endpointName, entities.EndpointStatusInService, "invocation failed")
		e.Err = err
		return e
	}
	if err := ValidateSmokeTestResponse(raw, len(SmokeTestPayload.Instances)); err != nil {
		return entities.NewHealthCheckFailedError(endpointName, entities.EndpointStatusInService, err.Error())
	}
	logger.Info("Smoke test passed", zap.String("endpoint", endpointName))
	return nil
}

// ValidateSmokeTestResponse checks raw is a JSON object with one prediction
// per instance, and as many probability rows when they are present.
func ValidateSmokeTestResponse(raw []byte, instances int) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}
	if _, ok := fields["predictions"]; !ok {
		return errors.New("response has no predictions")
	}

	var resp SmokeTestResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	if len(resp.Predictions) != instances {
		return fmt.Errorf("got %d predictions for %d instances", len(resp.Predictions), instances)
	}
	if _, ok := fields["probabilities"]; ok && len(resp.Probabilities) != instances {
		return fmt.Errorf("got %d probability rows for %d instances", len(resp.Probabilities), instances)
	}
	return nil
}

func (m *EndpointManager) validate(endpointName, modelPackageArn string, instanceCount int) error {
	switch {
	case endpointName == "":
		return entities.NewConfigurationError("endpoint name is required")
	case utils.SanitizeResourceName(endpointName) != endpointName:
		return entities.NewConfigurationError(fmt.Sprintf("invalid endpoint name %q", endpointName))
	case modelPackageArn == "":
		return entities.NewConfigurationError("model package ARN is required")
	case instanceCount < 1:
		return entities.NewConfigurationError(fmt.Sprintf("instance count must be positive, got %d", instanceCount))
	case m.roleArn == "":
		return entities.NewConfigurationError("execution role ARN is required to deploy an endpoint")
	}
	return nil
}

func (m *EndpointManager) ensureModel(ctx context.Context, modelName, modelPackageArn string) error {
	existing, err := m.endpoints.DescribeModel(ctx, modelName)
	if err != nil {
		return entities.NewInfrastructureError(modelName, "describe model", err)
	}
	if existing != nil {
		return nil
	}

	logger.Info("Creating model", zap.String("model", modelName), zap.String("modelPackageArn", modelPackageArn))
	err = m.endpoints.CreateModel(ctx, entities.ModelSpec{
		Name:            modelName,
		ModelPackageArn: modelPackageArn,
		RoleArn:         m.roleArn,
	})
	if err != nil {
		return entities.NewInfrastructureError(modelName, "create model", err)
	}
	return nil
}

func (m *EndpointManager) ensureEndpointConfig(
	ctx context.Context,
	configName string,
	modelName string,
	instanceType string,
	instanceCount int,
) error {
	existing, err := m.endpoints.DescribeEndpointConfig(ctx, configName)
	if err != nil {
		return entities.NewInfrastructureError(configName, "describe endpoint config", err)
	}
	if existing != nil {
		return nil
	}

	config := entities.EndpointConfig{
		Name:          configName,
		ModelName:     modelName,
		VariantName:   consts.VariantName,
		InstanceType:  instanceType,
		InstanceCount: instanceCount,
	}
	if m.dataCaptureUri != "" {
		config.DataCapture = &entities.DataCapture{
			DestinationS3Uri:   m.dataCaptureUri,
			SamplingPercentage: 100,
		}
	}

	logger.Info("Creating endpoint config", zap.String("config", configName), zap.String("model", modelName))
	if err := m.endpoints.CreateEndpointConfig(ctx, config); err != nil {
		return entities.NewInfrastructureError(configName, "create endpoint config", err)
	}
	return nil
}

func failedEndpointError(endpoint *entities.Endpoint) *entities.WorkflowError {
	reason := "endpoint failed"
	if endpoint.FailureReason != "" {
		reason += ": " + endpoint.FailureReason
	}
	return &entities.WorkflowError{
		Kind:     entities.ErrorKindInfrastructure,
		Resource: endpoint.Name,
		Status:   string(endpoint.Status),
		Reason:   reason,
	}
}

func configMismatchError(endpoint *entities.Endpoint, configName string) *entities.WorkflowError {
	reason := fmt.Sprintf("endpoint serves config %s instead of %s", endpoint.ConfigName, configName)
	if endpoint.FailureReason != "" {
		reason += ": " + endpoint.FailureReason
	}
	return &entities.WorkflowError{
		Kind:     entities.ErrorKindInfrastructure,
		Resource: endpoint.Name,
		Status:   string(endpoint.Status),
		Reason:   reason,
	}
}
