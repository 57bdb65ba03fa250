package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

const packageArn = "arn:aws:sagemaker:us-east-1:123456789012:model-package/wine-quality-models/3"

func TestDeploymentFingerprintIsStable(t *testing.T) {
	a := DeploymentFingerprint(packageArn, "ml.m5.xlarge", 1)
	b := DeploymentFingerprint(packageArn, "ml.m5.xlarge", 1)
	assert.Equal(t, a, b)
	assert.Len(t, a, 10)

	assert.NotEqual(t, a, DeploymentFingerprint(packageArn, "ml.m5.xlarge", 2))
	assert.NotEqual(t, a, DeploymentFingerprint(packageArn, "ml.c5.large", 1))
	assert.NotEqual(t, a, DeploymentFingerprint(packageArn+"x", "ml.m5.xlarge", 1))
}

func TestResourceNamesFitPlatformLimit(t *testing.T) {
	long := strings.Repeat("wine-quality-endpoint-", 5)
	fp := DeploymentFingerprint(packageArn, "ml.m5.xlarge", 1)

	for _, name := range []string{GetModelName(long, fp), GetEndpointConfigName(long, fp)} {
		assert.LessOrEqual(t, len(name), 63)
		assert.True(t, strings.HasSuffix(name, fp))
		assert.False(t, strings.Contains(name, "--"))
	}
	assert.Equal(t, "wine-quality-endpoint-c-"+fp, GetEndpointConfigName("wine-quality-endpoint", fp))
}

func TestSanitizeResourceName(t *testing.T) {
	assert.Equal(t, "feature-branch-endpoint", SanitizeResourceName("feature/branch_endpoint"))
	assert.Equal(t, "abc", SanitizeResourceName("--abc--"))
}

func TestPaths(t *testing.T) {
	id := uuid.MustParse("0b0f5a4e-8c1e-4d62-9a55-6f1f7f0c3a11")
	assert.Equal(t, "workflow-runs/staging/0b0f5a4e-8c1e-4d62-9a55-6f1f7f0c3a11.json", GetRunSummaryKey(entities.StageStaging, id))
	assert.Equal(t, "s3://ml-bucket/data-capture", GetDataCaptureUri("ml-bucket"))
	assert.Equal(t, "", GetDataCaptureUri(""))
}

func TestGetStageEndpointName(t *testing.T) {
	assert.Equal(t, "wine-quality-endpoint", GetStageEndpointName("wine-quality-endpoint", entities.StageProduction))
	assert.Equal(t, "wine-quality-endpoint-staging", GetStageEndpointName("wine-quality-endpoint", entities.StageStaging))
}
