package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

func registryWith(packages ...*entities.ModelPackage) *fakePlatform {
	platform := newFakePlatform()
	platform.packages = packages
	return platform
}

func TestRequireApproval(t *testing.T) {
	for _, status := range []entities.ApprovalStatus{
		entities.ApprovalStatusPendingManualApproval,
		entities.ApprovalStatusRejected,
		"approved",
	} {
		t.Run(string(status), func(t *testing.T) {
			gate := NewApprovalGate(registryWith(&entities.ModelPackage{Arn: testPackageArn, ApprovalStatus: status}))

			pkg, err := gate.RequireApproval(context.Background(), testPackageArn)
			require.Error(t, err)
			assert.ErrorIs(t, err, entities.ErrApprovalRequired)
			assert.Equal(t, status, pkg.ApprovalStatus)

			ok, err := gate.CheckApproval(context.Background(), testPackageArn)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRequireApprovalApproved(t *testing.T) {
	gate := NewApprovalGate(registryWith(&entities.ModelPackage{Arn: testPackageArn, ApprovalStatus: entities.ApprovalStatusApproved}))

	pkg, err := gate.RequireApproval(context.Background(), testPackageArn)
	require.NoError(t, err)
	assert.Equal(t, testPackageArn, pkg.Arn)
}

func TestRequireApprovalUnknownPackage(t *testing.T) {
	gate := NewApprovalGate(registryWith())

	_, err := gate.RequireApproval(context.Background(), testPackageArn)
	assert.ErrorIs(t, err, entities.ErrConfiguration)

	_, err = gate.RequireApproval(context.Background(), "")
	assert.ErrorIs(t, err, entities.ErrConfiguration)
}

func TestLatestApproved(t *testing.T) {
	platform := registryWith(
		&entities.ModelPackage{Arn: "pkg/1", GroupName: "wine-quality-models", Version: 1, ApprovalStatus: entities.ApprovalStatusApproved},
		&entities.ModelPackage{Arn: "pkg/2", GroupName: "wine-quality-models", Version: 2, ApprovalStatus: entities.ApprovalStatusApproved},
		&entities.ModelPackage{Arn: "pkg/3", GroupName: "wine-quality-models", Version: 3, ApprovalStatus: entities.ApprovalStatusPendingManualApproval},
	)
	gate := NewApprovalGate(platform)

	pkg, err := gate.LatestApproved(context.Background(), "wine-quality-models")
	require.NoError(t, err)
	assert.Equal(t, "pkg/2", pkg.Arn)

	_, err = gate.LatestApproved(context.Background(), "other-group")
	assert.ErrorIs(t, err, entities.ErrApprovalRequired)
}
