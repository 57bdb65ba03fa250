package consts

const (
	DefaultRegion             = "us-east-1"
	DefaultInstanceType       = "ml.m5.xlarge"
	DefaultInstanceCount      = 1
	DefaultPipelineName       = "WineQualityPipeline"
	DefaultModelPackageGroup  = "wine-quality-models"
	DefaultEndpointName       = "wine-quality-endpoint"
	DefaultAccuracyThreshold  = 0.70
	DefaultPipelineConfigPath = "config/pipeline.yaml"

	// CleanupConfirmationToken must be passed verbatim to delete an endpoint.
	CleanupConfirmationToken = "DELETE"

	VariantName      = "AllTraffic"
	DataCapturePath  = "data-capture"
	RunSummaryPrefix = "workflow-runs"

	JSONContentType = "application/json"

	StagingRetentionDays    = 7
	ProductionRetentionDays = 90

	// SageMaker resource names are limited to 63 characters.
	MaxResourceNameLength = 63
)
