package dtos

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

var (
	endpointNameRegex = regexp.MustCompile(`^[a-zA-Z0-9](-*[a-zA-Z0-9])*$`)
	validate          = validator.New()
)

type CreateWorkflowRequest struct {
	Event           string            `json:"event"           binding:"required" validate:"oneof=push pull_request workflow_dispatch"`
	Ref             string            `json:"ref"             binding:"required"`
	Environment     string            `json:"environment"     validate:"omitempty,oneof=staging production"`
	ModelPackageArn string            `json:"modelPackageArn" validate:"omitempty,startswith=arn:"`
	EndpointName    string            `json:"endpointName"    validate:"omitempty,max=63"`
	InstanceType    string            `json:"instanceType"    validate:"omitempty,startswith=ml."`
	InstanceCount   int               `json:"instanceCount"   validate:"omitempty,min=1"`
	Parameters      map[string]string `json:"parameters"`
}

func (request *CreateWorkflowRequest) Validate() error {
	if err := validate.Struct(request); err != nil {
		return err
	}

	if request.Environment != "" && request.Event != "workflow_dispatch" {
		return errors.New("environment can only be selected on a workflow_dispatch event")
	}

	if request.EndpointName != "" && !endpointNameRegex.MatchString(request.EndpointName) {
		logger.Error("invalid endpointName", zap.String("endpointName", request.EndpointName))
		return fmt.Errorf("invalid endpoint name %q, only letters, digits and hyphens are allowed", request.EndpointName)
	}
	return nil
}

func (request *CreateWorkflowRequest) ToDeploymentRequest() entities.DeploymentRequest {
	return entities.DeploymentRequest{
		Event: entities.DeploymentEvent{
			Name:        request.Event,
			Ref:         request.Ref,
			ManualStage: request.Environment,
		},
		ModelPackageArn: request.ModelPackageArn,
		EndpointName:    request.EndpointName,
		InstanceType:    request.InstanceType,
		InstanceCount:   request.InstanceCount,
		Parameters:      request.Parameters,
	}
}

type CreateWorkflowResponse struct {
	Message string             `json:"message"`
	RunID   string             `json:"runId"`
	Stage   entities.Stage     `json:"stage"`
	Status  entities.RunStatus `json:"status"`
}

// CleanupEndpointRequest must carry the literal confirmation token DELETE.
type CleanupEndpointRequest struct {
	Confirm string `json:"confirm"`
}

type ErrorResponse struct {
	Error     string             `json:"error"`
	ErrorKind entities.ErrorKind `json:"errorKind,omitempty"`
}
