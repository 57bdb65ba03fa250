package entities

import "time"

type Endpoint struct {
	Name          string         `json:"name"`
	Arn           string         `json:"arn,omitempty"`
	Status        EndpointStatus `json:"status"`
	ConfigName    string         `json:"configName,omitempty"`
	InstanceType  string         `json:"instanceType,omitempty"`
	InstanceCount int            `json:"instanceCount,omitempty"`
	FailureReason string         `json:"failureReason,omitempty"`
	CreationTime  time.Time      `json:"creationTime"`
}

// ModelSpec is a hosted model built from a registered model package.
type ModelSpec struct {
	Name            string `json:"name"`
	ModelPackageArn string `json:"modelPackageArn"`
	RoleArn         string `json:"roleArn"`
}

// DataCapture configures request/response capture for monitoring.
type DataCapture struct {
	DestinationS3Uri   string `json:"destinationS3Uri"`
	SamplingPercentage int    `json:"samplingPercentage"`
}

type EndpointConfig struct {
	Name          string       `json:"name"`
	ModelName     string       `json:"modelName"`
	VariantName   string       `json:"variantName"`
	InstanceType  string       `json:"instanceType"`
	InstanceCount int          `json:"instanceCount"`
	DataCapture   *DataCapture `json:"dataCapture,omitempty"`
}

type CleanupRequest struct {
	EndpointName      string `json:"endpointName"`
	ConfirmationToken string `json:"confirm"`
}

type CleanupResult struct {
	EndpointName string `json:"endpointName"`
	ConfigName   string `json:"configName,omitempty"`
	// NoOp is set when the endpoint did not exist.
	NoOp bool `json:"noOp"`
}
