package entities

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary is the record produced by every workflow instance.
type RunSummary struct {
	Stage           Stage              `json:"stage"`
	Ref             string             `json:"ref"`
	Event           string             `json:"event,omitempty"`
	PipelineName    string             `json:"pipelineName,omitempty"`
	ExecutionArn    string             `json:"executionArn,omitempty"`
	ExecutionStatus ExecutionStatus    `json:"executionStatus,omitempty"`
	ModelPackageArn string             `json:"modelPackageArn,omitempty"`
	ApprovalStatus  ApprovalStatus     `json:"approvalStatus,omitempty"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	EndpointName    string             `json:"endpointName,omitempty"`
	EndpointStatus  EndpointStatus     `json:"endpointStatus,omitempty"`
	EndpointConfig  string             `json:"endpointConfig,omitempty"`
	InstanceType    string             `json:"instanceType,omitempty"`
	InstanceCount   int                `json:"instanceCount,omitempty"`
	ErrorKind       ErrorKind          `json:"errorKind,omitempty"`
	Error           string             `json:"error,omitempty"`
}

type WorkflowRun struct {
	ID         uuid.UUID         `json:"id"`
	Stage      Stage             `json:"stage"`
	Status     RunStatus         `json:"status"`
	Request    DeploymentRequest `json:"request"`
	Summary    RunSummary        `json:"summary"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
	ExpiresAt  time.Time         `json:"expiresAt"`
	// SummaryUri is where the summary artifact was published.
	SummaryUri string `json:"summaryUri,omitempty"`
}
