package cloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/google/uuid"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

// SageMakerAPI is the part of the SageMaker client the platform adapter uses.
type SageMakerAPI interface {
	DescribePipeline(ctx context.Context, in *sagemaker.DescribePipelineInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribePipelineOutput, error)
	CreatePipeline(ctx context.Context, in *sagemaker.CreatePipelineInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreatePipelineOutput, error)
	UpdatePipeline(ctx context.Context, in *sagemaker.UpdatePipelineInput, optFns ...func(*sagemaker.Options)) (*sagemaker.UpdatePipelineOutput, error)
	StartPipelineExecution(ctx context.Context, in *sagemaker.StartPipelineExecutionInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StartPipelineExecutionOutput, error)
	DescribePipelineExecution(ctx context.Context, in *sagemaker.DescribePipelineExecutionInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribePipelineExecutionOutput, error)
	DescribeModelPackage(ctx context.Context, in *sagemaker.DescribeModelPackageInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeModelPackageOutput, error)
	ListModelPackages(ctx context.Context, in *sagemaker.ListModelPackagesInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListModelPackagesOutput, error)
	DescribeModel(ctx context.Context, in *sagemaker.DescribeModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeModelOutput, error)
	CreateModel(ctx context.Context, in *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
	DescribeEndpointConfig(ctx context.Context, in *sagemaker.DescribeEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointConfigOutput, error)
	CreateEndpointConfig(ctx context.Context, in *sagemaker.CreateEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error)
	DeleteEndpointConfig(ctx context.Context, in *sagemaker.DeleteEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointConfigOutput, error)
	DescribeEndpoint(ctx context.Context, in *sagemaker.DescribeEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
	CreateEndpoint(ctx context.Context, in *sagemaker.CreateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error)
	UpdateEndpoint(ctx context.Context, in *sagemaker.UpdateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.UpdateEndpointOutput, error)
	DeleteEndpoint(ctx context.Context, in *sagemaker.DeleteEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointOutput, error)
	ListEndpoints(ctx context.Context, in *sagemaker.ListEndpointsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListEndpointsOutput, error)
}

// SageMakerPlatform implements the pipeline, registry and endpoint
// operations of the release workflow on SageMaker.
type SageMakerPlatform struct {
	api SageMakerAPI
}

func NewSageMakerPlatform(cfg aws.Config) *SageMakerPlatform {
	return &SageMakerPlatform{api: sagemaker.NewFromConfig(cfg)}
}

func NewSageMakerPlatformWithAPI(api SageMakerAPI) *SageMakerPlatform {
	return &SageMakerPlatform{api: api}
}

func (p *SageMakerPlatform) DescribePipeline(ctx context.Context, name string) (*entities.PipelineDefinition, error) {
	out, err := p.api.DescribePipeline(ctx, &sagemaker.DescribePipelineInput{PipelineName: aws.String(name)})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entities.PipelineDefinition{
		Name:        aws.ToString(out.PipelineName),
		Description: aws.ToString(out.PipelineDescription),
		RoleArn:     aws.ToString(out.RoleArn),
		Document:    []byte(aws.ToString(out.PipelineDefinition)),
	}, nil
}

func (p *SageMakerPlatform) CreatePipeline(ctx context.Context, definition *entities.PipelineDefinition) error {
	_, err := p.api.CreatePipeline(ctx, &sagemaker.CreatePipelineInput{
		PipelineName:        aws.String(definition.Name),
		PipelineDescription: optionalString(definition.Description),
		PipelineDefinition:  aws.String(string(definition.Document)),
		RoleArn:             aws.String(definition.RoleArn),
		ClientRequestToken:  aws.String(uuid.NewString()),
	})
	return err
}

func (p *SageMakerPlatform) UpdatePipeline(ctx context.Context, definition *entities.PipelineDefinition) error {
	_, err := p.api.UpdatePipeline(ctx, &sagemaker.UpdatePipelineInput{
		PipelineName:        aws.String(definition.Name),
		PipelineDescription: optionalString(definition.Description),
		PipelineDefinition:  aws.String(string(definition.Document)),
		RoleArn:             aws.String(definition.RoleArn),
	})
	return err
}

func (p *SageMakerPlatform) StartPipelineExecution(
	ctx context.Context,
	name string,
	parameters map[string]string,
	clientToken string,
) (string, error) {
	in := &sagemaker.StartPipelineExecutionInput{
		PipelineName:       aws.String(name),
		ClientRequestToken: aws.String(clientToken),
	}
	for k, v := range parameters {
		in.PipelineParameters = append(in.PipelineParameters, types.Parameter{Name: aws.String(k), Value: aws.String(v)})
	}
	out, err := p.api.StartPipelineExecution(ctx, in)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.PipelineExecutionArn), nil
}

func (p *SageMakerPlatform) DescribePipelineExecution(ctx context.Context, executionArn string) (*entities.PipelineExecution, error) {
	out, err := p.api.DescribePipelineExecution(ctx, &sagemaker.DescribePipelineExecutionInput{
		PipelineExecutionArn: aws.String(executionArn),
	})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entities.PipelineExecution{
		Arn:           aws.ToString(out.PipelineExecutionArn),
		PipelineName:  aws.ToString(out.PipelineArn),
		Status:        entities.ExecutionStatus(out.PipelineExecutionStatus),
		FailureReason: aws.ToString(out.FailureReason),
		StartTime:     aws.ToTime(out.CreationTime),
		LastModified:  aws.ToTime(out.LastModifiedTime),
	}, nil
}

func (p *SageMakerPlatform) DescribeModelPackage(ctx context.Context, modelPackageArn string) (*entities.ModelPackage, error) {
	out, err := p.api.DescribeModelPackage(ctx, &sagemaker.DescribeModelPackageInput{
		ModelPackageName: aws.String(modelPackageArn),
	})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	pkg := &entities.ModelPackage{
		Arn:            aws.ToString(out.ModelPackageArn),
		GroupName:      aws.ToString(out.ModelPackageGroupName),
		Version:        int(aws.ToInt32(out.ModelPackageVersion)),
		ApprovalStatus: entities.ApprovalStatus(out.ModelApprovalStatus),
		CreationTime:   aws.ToTime(out.CreationTime),
	}
	for k, v := range out.CustomerMetadataProperties {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			if pkg.Metrics == nil {
				pkg.Metrics = map[string]float64{}
			}
			pkg.Metrics[k] = f
		}
	}
	return pkg, nil
}

func (p *SageMakerPlatform) LatestModelPackage(
	ctx context.Context,
	group string,
	status entities.ApprovalStatus,
) (*entities.ModelPackage, error) {
	in := &sagemaker.ListModelPackagesInput{
		ModelPackageGroupName: aws.String(group),
		SortBy:                types.ModelPackageSortByCreationTime,
		SortOrder:             types.SortOrderDescending,
		MaxResults:            aws.Int32(1),
	}
	if status != "" {
		in.ModelApprovalStatus = types.ModelApprovalStatus(status)
	}
	out, err := p.api.ListModelPackages(ctx, in)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(out.ModelPackageSummaryList) == 0 {
		return nil, nil
	}
	return p.DescribeModelPackage(ctx, aws.ToString(out.ModelPackageSummaryList[0].ModelPackageArn))
}

func (p *SageMakerPlatform) DescribeModel(ctx context.Context, name string) (*entities.ModelSpec, error) {
	out, err := p.api.DescribeModel(ctx, &sagemaker.DescribeModelInput{ModelName: aws.String(name)})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	model := &entities.ModelSpec{
		Name:    aws.ToString(out.ModelName),
		RoleArn: aws.ToString(out.ExecutionRoleArn),
	}
	if out.PrimaryContainer != nil {
		model.ModelPackageArn = aws.ToString(out.PrimaryContainer.ModelPackageName)
	}
	return model, nil
}

func (p *SageMakerPlatform) CreateModel(ctx context.Context, model entities.ModelSpec) error {
	_, err := p.api.CreateModel(ctx, &sagemaker.CreateModelInput{
		ModelName:        aws.String(model.Name),
		ExecutionRoleArn: aws.String(model.RoleArn),
		PrimaryContainer: &types.ContainerDefinition{
			ModelPackageName: aws.String(model.ModelPackageArn),
		},
	})
	return err
}

func (p *SageMakerPlatform) DescribeEndpointConfig(ctx context.Context, name string) (*entities.EndpointConfig, error) {
	out, err := p.api.DescribeEndpointConfig(ctx, &sagemaker.DescribeEndpointConfigInput{
		EndpointConfigName: aws.String(name),
	})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	config := &entities.EndpointConfig{Name: aws.ToString(out.EndpointConfigName)}
	if len(out.ProductionVariants) > 0 {
		v := out.ProductionVariants[0]
		config.ModelName = aws.ToString(v.ModelName)
		config.VariantName = aws.ToString(v.VariantName)
		config.InstanceType = string(v.InstanceType)
		config.InstanceCount = int(aws.ToInt32(v.InitialInstanceCount))
	}
	if dc := out.DataCaptureConfig; dc != nil && aws.ToBool(dc.EnableCapture) {
		config.DataCapture = &entities.DataCapture{
			DestinationS3Uri:   aws.ToString(dc.DestinationS3Uri),
			SamplingPercentage: int(aws.ToInt32(dc.InitialSamplingPercentage)),
		}
	}
	return config, nil
}

func (p *SageMakerPlatform) CreateEndpointConfig(ctx context.Context, config entities.EndpointConfig) error {
	in := &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(config.Name),
		ProductionVariants: []types.ProductionVariant{
			{
				VariantName:          aws.String(config.VariantName),
				ModelName:            aws.String(config.ModelName),
				InstanceType:         types.ProductionVariantInstanceType(config.InstanceType),
				InitialInstanceCount: aws.Int32(int32(config.InstanceCount)),
			},
		},
	}
	if config.DataCapture != nil {
		in.DataCaptureConfig = &types.DataCaptureConfig{
			EnableCapture:             aws.Bool(true),
			InitialSamplingPercentage: aws.Int32(int32(config.DataCapture.SamplingPercentage)),
			DestinationS3Uri:          aws.String(config.DataCapture.DestinationS3Uri),
			CaptureOptions: []types.CaptureOption{
				{CaptureMode: types.CaptureModeInput},
				{CaptureMode: types.CaptureModeOutput},
			},
		}
	}
	_, err := p.api.CreateEndpointConfig(ctx, in)
	return err
}

func (p *SageMakerPlatform) DeleteEndpointConfig(ctx context.Context, name string) error {
	_, err := p.api.DeleteEndpointConfig(ctx, &sagemaker.DeleteEndpointConfigInput{
		EndpointConfigName: aws.String(name),
	})
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *SageMakerPlatform) DescribeEndpoint(ctx context.Context, name string) (*entities.Endpoint, error) {
	out, err := p.api.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{EndpointName: aws.String(name)})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	endpoint := &entities.Endpoint{
		Name:          aws.ToString(out.EndpointName),
		Arn:           aws.ToString(out.EndpointArn),
		Status:        entities.EndpointStatus(out.EndpointStatus),
		ConfigName:    aws.ToString(out.EndpointConfigName),
		FailureReason: aws.ToString(out.FailureReason),
		CreationTime:  aws.ToTime(out.CreationTime),
	}
	for _, v := range out.ProductionVariants {
		endpoint.InstanceCount += int(aws.ToInt32(v.CurrentInstanceCount))
	}
	return endpoint, nil
}

func (p *SageMakerPlatform) CreateEndpoint(ctx context.Context, name, configName string) error {
	_, err := p.api.CreateEndpoint(ctx, &sagemaker.CreateEndpointInput{
		EndpointName:       aws.String(name),
		EndpointConfigName: aws.String(configName),
	})
	return err
}

func (p *SageMakerPlatform) UpdateEndpoint(ctx context.Context, name, configName string) error {
	_, err := p.api.UpdateEndpoint(ctx, &sagemaker.UpdateEndpointInput{
		EndpointName:       aws.String(name),
		EndpointConfigName: aws.String(configName),
	})
	return err
}

func (p *SageMakerPlatform) DeleteEndpoint(ctx context.Context, name string) error {
	_, err := p.api.DeleteEndpoint(ctx, &sagemaker.DeleteEndpointInput{EndpointName: aws.String(name)})
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *SageMakerPlatform) ListEndpoints(ctx context.Context) ([]*entities.Endpoint, error) {
	var endpoints []*entities.Endpoint
	paginator := sagemaker.NewListEndpointsPaginator(p.api, &sagemaker.ListEndpointsInput{
		SortBy:    types.EndpointSortKeyName,
		SortOrder: types.OrderKeyAscending,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list endpoints: %w", err)
		}
		for _, e := range page.Endpoints {
			endpoints = append(endpoints, &entities.Endpoint{
				Name:         aws.ToString(e.EndpointName),
				Arn:          aws.ToString(e.EndpointArn),
				Status:       entities.EndpointStatus(e.EndpointStatus),
				CreationTime: aws.ToTime(e.CreationTime),
			})
		}
	}
	return endpoints, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
