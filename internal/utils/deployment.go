package utils

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sagemaker-mlops/release-orchestrator/internal/consts"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// DeploymentFingerprint identifies the desired serving state of an endpoint.
// Identical inputs always produce the same fingerprint.
func DeploymentFingerprint(modelPackageArn, instanceType string, instanceCount int) string {
	h := xxhash.New()
	_, _ = h.WriteString(modelPackageArn)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(instanceType)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.Itoa(instanceCount))
	return fmt.Sprintf("%016x", h.Sum64())[:10]
}

// GetModelName returns the hosted model name for an endpoint's desired state.
func GetModelName(endpointName, fingerprint string) string {
	return suffixedName(endpointName, "m-"+fingerprint)
}

// GetEndpointConfigName returns the endpoint config name for an endpoint's
// desired state.
func GetEndpointConfigName(endpointName, fingerprint string) string {
	return suffixedName(endpointName, "c-"+fingerprint)
}

func GetDataCaptureUri(bucket string) string {
	if bucket == "" {
		return ""
	}
	return fmt.Sprintf("s3://%s/%s", bucket, consts.DataCapturePath)
}

func GetRunSummaryKey(stage entities.Stage, runID uuid.UUID) string {
	return path.Join(consts.RunSummaryPrefix, string(stage), runID.String()+".json")
}

// SanitizeResourceName makes name acceptable as a SageMaker resource name.
func SanitizeResourceName(name string) string {
	name = invalidNameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if len(name) > consts.MaxResourceNameLength {
		name = strings.TrimRight(name[:consts.MaxResourceNameLength], "-")
	}
	return name
}

func suffixedName(base, suffix string) string {
	base = SanitizeResourceName(base)
	max := consts.MaxResourceNameLength - len(suffix) - 1
	if len(base) > max {
		base = strings.TrimRight(base[:max], "-")
	}
	return base + "-" + suffix
}

// GetStageEndpointName names the endpoint serving stage. Production uses
// base unchanged.
func GetStageEndpointName(base string, stage entities.Stage) string {
	if stage == entities.StageProduction {
		return base
	}
	return suffixedName(base, string(stage))
}
