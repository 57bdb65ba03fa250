package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

// ApprovalGate reads the approval status of a model package. It never waits
// for an approval to happen.
type ApprovalGate struct {
	registry ModelRegistry
}

func NewApprovalGate(registry ModelRegistry) *ApprovalGate {
	return &ApprovalGate{registry: registry}
}

func (g *ApprovalGate) CheckApproval(ctx context.Context, modelPackageArn string) (bool, error) {
	pkg, err := g.describe(ctx, modelPackageArn)
	if err != nil {
		return false, err
	}
	return pkg.IsApproved(), nil
}

// RequireApproval returns the package when its status is exactly Approved and
// an ApprovalRequired halt otherwise.
func (g *ApprovalGate) RequireApproval(ctx context.Context, modelPackageArn string) (*entities.ModelPackage, error) {
	pkg, err := g.describe(ctx, modelPackageArn)
	if err != nil {
		return nil, err
	}
	if !pkg.IsApproved() {
		logger.Warn("Model package is not approved",
			zap.String("modelPackageArn", modelPackageArn),
			zap.String("approvalStatus", string(pkg.ApprovalStatus)),
		)
		return pkg, entities.NewApprovalRequiredError(modelPackageArn, pkg.ApprovalStatus)
	}
	return pkg, nil
}

// LatestApproved picks the newest Approved package of group. No such package
// is an ApprovalRequired halt.
func (g *ApprovalGate) LatestApproved(ctx context.Context, group string) (*entities.ModelPackage, error) {
	if group == "" {
		return nil, entities.NewConfigurationError("model package group is required")
	}
	pkg, err := g.registry.LatestModelPackage(ctx, group, entities.ApprovalStatusApproved)
	if err != nil {
		return nil, entities.NewInfrastructureError(group, "list model packages", err)
	}
	if pkg == nil {
		e := entities.NewApprovalRequiredError(group, "")
		e.Reason = fmt.Sprintf("no approved model package in group %s", group)
		return nil, e
	}
	return pkg, nil
}

func (g *ApprovalGate) describe(ctx context.Context, modelPackageArn string) (*entities.ModelPackage, error) {
	if modelPackageArn == "" {
		return nil, entities.NewConfigurationError("model package ARN is required")
	}
	pkg, err := g.registry.DescribeModelPackage(ctx, modelPackageArn)
	if err != nil {
		return nil, entities.NewInfrastructureError(modelPackageArn, "describe model package", err)
	}
	if pkg == nil {
		return nil, entities.NewConfigurationError(fmt.Sprintf("model package %s does not exist", modelPackageArn))
	}
	return pkg, nil
}
