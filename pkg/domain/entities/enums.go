package entities

import "strings"

type Stage string

const (
	StageStaging    Stage = "staging"
	StageProduction Stage = "production"
	StageNone       Stage = "none"
)

func (s Stage) String() string {
	return string(s)
}

// ParseStage accepts the deploy targets a manual trigger may select.
func ParseStage(raw string) (Stage, bool) {
	switch Stage(strings.ToLower(strings.TrimSpace(raw))) {
	case StageStaging:
		return StageStaging, true
	case StageProduction:
		return StageProduction, true
	}
	return "", false
}

type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "Pending"
	ExecutionStatusExecuting ExecutionStatus = "Executing"
	ExecutionStatusStopping  ExecutionStatus = "Stopping"
	ExecutionStatusStopped   ExecutionStatus = "Stopped"
	ExecutionStatusFailed    ExecutionStatus = "Failed"
	ExecutionStatusSucceeded ExecutionStatus = "Succeeded"
)

func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSucceeded || s == ExecutionStatusFailed || s == ExecutionStatusStopped
}

type ApprovalStatus string

const (
	ApprovalStatusPendingManualApproval ApprovalStatus = "PendingManualApproval"
	ApprovalStatusApproved              ApprovalStatus = "Approved"
	ApprovalStatusRejected              ApprovalStatus = "Rejected"
)

type EndpointStatus string

const (
	EndpointStatusCreating  EndpointStatus = "Creating"
	EndpointStatusInService EndpointStatus = "InService"
	EndpointStatusUpdating  EndpointStatus = "Updating"
	EndpointStatusFailed    EndpointStatus = "Failed"
	EndpointStatusDeleting  EndpointStatus = "Deleting"
	// EndpointStatusAbsent is reported when the platform has no endpoint
	// under the requested name.
	EndpointStatusAbsent EndpointStatus = "Absent"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "Pending"
	RunStatusRunning   RunStatus = "Running"
	RunStatusSucceeded RunStatus = "Succeeded"
	RunStatusFailed    RunStatus = "Failed"
	// RunStatusHalted is a run stopped at the approval gate.
	RunStatusHalted  RunStatus = "Halted"
	RunStatusSkipped RunStatus = "Skipped"
)

func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed || s == RunStatusHalted || s == RunStatusSkipped
}
