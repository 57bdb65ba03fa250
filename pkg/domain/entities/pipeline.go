package entities

import (
	"encoding/json"
	"time"
)

// PipelineDefinition is a named workflow definition as accepted by the
// platform. Document is the JSON definition body.
type PipelineDefinition struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	RoleArn     string            `json:"roleArn"`
	Document    json.RawMessage   `json:"document"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

type PipelineExecution struct {
	Arn           string          `json:"arn"`
	PipelineName  string          `json:"pipelineName"`
	Status        ExecutionStatus `json:"status"`
	FailureReason string          `json:"failureReason,omitempty"`
	StartTime     time.Time       `json:"startTime"`
	LastModified  time.Time       `json:"lastModified"`
}
