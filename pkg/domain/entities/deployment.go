package entities

// Task is a unit of work queued on the task manager.
type Task func()

// DeploymentEvent is the source-control event that triggered a workflow.
type DeploymentEvent struct {
	// Name is the CI event name, e.g. push, pull_request, workflow_dispatch.
	Name string `json:"name"`
	// Ref is the branch, either short (main) or full (refs/heads/main).
	Ref string `json:"ref"`
	// ManualStage is the stage picked on a manual dispatch, empty otherwise.
	ManualStage string `json:"manualStage,omitempty"`
}

// DeploymentRequest is one instantiation of the release workflow.
type DeploymentRequest struct {
	Event           DeploymentEvent `json:"event"`
	ModelPackageArn string          `json:"modelPackageArn,omitempty"`
	EndpointName    string          `json:"endpointName"`
	InstanceType    string          `json:"instanceType"`
	InstanceCount   int             `json:"instanceCount"`
	// Parameters override the pipeline definition's parameter defaults.
	Parameters map[string]string `json:"parameters,omitempty"`
}
