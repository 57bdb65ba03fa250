package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagemaker-mlops/release-orchestrator/internal/utils"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

const endpointName = "wine-quality-endpoint"

func newTestEndpointManager(platform *fakePlatform) *EndpointManager {
	return NewEndpointManager(platform, platform, testRoleArn, "s3://ml-bucket/data-capture", fastPolicy)
}

func TestDeployEndpointCreatesWhenAbsent(t *testing.T) {
	platform := newFakePlatform()
	manager := newTestEndpointManager(platform)

	endpoint, err := manager.DeployEndpoint(context.Background(), endpointName, testPackageArn, "ml.m5.xlarge", 1)
	require.NoError(t, err)
	assert.Equal(t, entities.EndpointStatusInService, endpoint.Status)
	assert.Equal(t, 1, platform.count("CreateModel"))
	assert.Equal(t, 1, platform.count("CreateEndpointConfig"))
	assert.Equal(t, 1, platform.count("CreateEndpoint"))
	assert.Equal(t, 1, platform.count("InvokeEndpoint"))

	fp := utils.DeploymentFingerprint(testPackageArn, "ml.m5.xlarge", 1)
	config := platform.configs[utils.GetEndpointConfigName(endpointName, fp)]
	assert.Equal(t, utils.GetModelName(endpointName, fp), config.ModelName)
	assert.Equal(t, "AllTraffic", config.VariantName)
	require.NotNil(t, config.DataCapture)
	assert.Equal(t, 100, config.DataCapture.SamplingPercentage)
	assert.Equal(t, testRoleArn, platform.models[config.ModelName].RoleArn)
}

func TestDeployEndpointIsIdempotent(t *testing.T) {
	platform := newFakePlatform()
	manager := newTestEndpointManager(platform)

	first, err := manager.DeployEndpoint(context.Background(), endpointName, testPackageArn, "ml.m5.xlarge", 1)
	require.NoError(t, err)
	mutations := platform.mutations()

	second, err := manager.DeployEndpoint(context.Background(), endpointName, testPackageArn, "ml.m5.xlarge", 1)
	require.NoError(t, err)

	assert.Equal(t, first.ConfigName, second.ConfigName)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, mutations, platform.mutations())
	assert.Equal(t, 1, platform.count("CreateEndpoint"))
	assert.Zero(t, platform.count("UpdateEndpoint"))
}

func TestDeployEndpointUpdatesInPlace(t *testing.T) {
	platform := newFakePlatform()
	platform.putEndpoint(endpointName, "wine-quality-endpoint-c-previous", entities.EndpointStatusInService)
	manager := newTestEndpointManager(platform)

	endpoint, err := manager.DeployEndpoint(context.Background(), endpointName, testPackageArn, "ml.m5.xlarge", 2)
	require.NoError(t, err)

	fp := utils.DeploymentFingerprint(testPackageArn, "ml.m5.xlarge", 2)
	assert.Equal(t, utils.GetEndpointConfigName(endpointName, fp), endpoint.ConfigName)
	assert.Equal(t, entities.EndpointStatusInService, endpoint.Status)
	assert.Equal(t, 1, platform.count("UpdateEndpoint"))
	assert.Zero(t, platform.count("CreateEndpoint"))
	assert.Zero(t, platform.count("DeleteEndpoint"))
}

func TestDeployEndpointReportsRolledBackUpdate(t *testing.T) {
	platform := newFakePlatform()
	platform.putEndpoint(endpointName, "wine-quality-endpoint-c-previous", entities.EndpointStatusInService)
	platform.rollbackReason = "update rolled back: capacity error"
	manager := newTestEndpointManager(platform)

	endpoint, err := manager.DeployEndpoint(context.Background(), endpointName, testPackageArn, "ml.m5.xlarge", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInfrastructure)
	assert.Contains(t, err.Error(), "wine-quality-endpoint-c-previous")
	assert.Contains(t, err.Error(), "capacity error")

	require.NotNil(t, endpoint)
	assert.Equal(t, "wine-quality-endpoint-c-previous", endpoint.ConfigName)
	assert.Equal(t, entities.EndpointStatusInService, endpoint.Status)
	assert.Equal(t, 1, platform.count("UpdateEndpoint"))
	assert.Zero(t, platform.count("InvokeEndpoint"), "the previous model must not be smoke tested")
}

func TestDeployEndpointWaitsForPendingChangeBeforeUpdate(t *testing.T) {
	platform := newFakePlatform()
	platform.putEndpoint(endpointName, "wine-quality-endpoint-c-previous", entities.EndpointStatusUpdating)
	manager := newTestEndpointManager(platform)

	_, err := manager.DeployEndpoint(context.Background(), endpointName, testPackageArn, "ml.m5.xlarge", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, platform.count("UpdateEndpoint"))
}

func TestDeployEndpointRefusesFailedEndpoint(t *testing.T) {
	platform := newFakePlatform()
	platform.putEndpoint(endpointName, "wine-quality-endpoint-c-previous", entities.EndpointStatusFailed)
	manager := newTestEndpointManager(platform)

	_, err := manager.DeployEndpoint(context.Background(), endpointName, testPackageArn, "ml.m5.xlarge", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInfrastructure)
	assert.Zero(t, platform.count("UpdateEndpoint"))
	assert.Zero(t, platform.count("DeleteEndpoint"))
}

func TestDeployEndpointTimesOut(t *testing.T) {
	platform := newFakePlatform()
	platform.frozen = true
	manager := newTestEndpointManager(platform)

	endpoint, err := manager.DeployEndpoint(context.Background(), endpointName, testPackageArn, "ml.m5.xlarge", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrTimeout)
	assert.Contains(t, err.Error(), "status=Creating")
	require.NotNil(t, endpoint)
	assert.Equal(t, entities.EndpointStatusCreating, endpoint.Status)
	assert.Zero(t, platform.count("InvokeEndpoint"))
}

func TestDeployEndpointRejectsBadInput(t *testing.T) {
	platform := newFakePlatform()
	manager := newTestEndpointManager(platform)

	tests := []struct {
		name     string
		endpoint string
		arn      string
		count    int
	}{
		{name: "no endpoint", arn: testPackageArn, count: 1},
		{name: "bad endpoint name", endpoint: "wine_quality", arn: testPackageArn, count: 1},
		{name: "no package", endpoint: endpointName, count: 1},
		{name: "zero instances", endpoint: endpointName, arn: testPackageArn, count: 0},
		{name: "negative instances", endpoint: endpointName, arn: testPackageArn, count: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.DeployEndpoint(context.Background(), tt.endpoint, tt.arn, "", tt.count)
			assert.ErrorIs(t, err, entities.ErrConfiguration)
		})
	}
	assert.Zero(t, platform.totalCalls())
}

func TestDeployEndpointSmokeTestFailureLeavesEndpoint(t *testing.T) {
	platform := newFakePlatform()
	platform.invokeResponse = `{"predictions": [5]}`
	manager := newTestEndpointManager(platform)

	endpoint, err := manager.DeployEndpoint(context.Background(), endpointName, testPackageArn, "ml.m5.xlarge", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrHealthCheckFailed)
	require.NotNil(t, endpoint)
	assert.Equal(t, entities.EndpointStatusInService, endpoint.Status)
	assert.Zero(t, platform.count("DeleteEndpoint"))
	assert.Contains(t, platform.endpoints, endpointName)
}

func TestSmokeTestInvocationError(t *testing.T) {
	platform := newFakePlatform()
	platform.invokeErr = errors.New("ModelError: received server error (500)")
	manager := newTestEndpointManager(platform)

	err := manager.SmokeTest(context.Background(), endpointName)
	assert.ErrorIs(t, err, entities.ErrHealthCheckFailed)
	assert.Contains(t, err.Error(), "ModelError")
}

func TestValidateSmokeTestResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "predictions and probabilities", body: wellFormed},
		{name: "predictions only", body: `{"predictions": [5, 6, 7]}`},
		{name: "not json", body: `<html>bad gateway</html>`, wantErr: true},
		{name: "array", body: `[5, 6, 7]`, wantErr: true},
		{name: "no predictions", body: `{"result": [5, 6, 7]}`, wantErr: true},
		{name: "null predictions", body: `{"predictions": null}`, wantErr: true},
		{name: "too few predictions", body: `{"predictions": [5, 6]}`, wantErr: true},
		{name: "predictions not a list", body: `{"predictions": "5,6,7"}`, wantErr: true},
		{name: "short probabilities", body: `{"predictions": [5, 6, 7], "probabilities": [[1]]}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSmokeTestResponse([]byte(tt.body), 3)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
