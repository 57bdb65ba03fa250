package pipelines

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/sagemaker-mlops/release-orchestrator/internal/consts"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

const (
	definitionVersion = "2020-12-01"

	StepPreprocess     = "PreprocessData"
	StepTrain          = "TrainModel"
	StepEvaluate       = "EvaluateModel"
	StepCheckAccuracy  = "CheckAccuracyThreshold"
	StepRegisterModel  = "RegisterWineQualityModel"
	evaluationReport   = "EvaluationReport"
	processingBasePath = "/opt/ml/processing"
)

const (
	ParamProcessingInstanceType = "ProcessingInstanceType"
	ParamTrainingInstanceType   = "TrainingInstanceType"
	ParamInputDataUri           = "InputDataUri"
	ParamAccuracyThreshold      = "AccuracyThreshold"
)

type document struct {
	Version    string           `json:"Version"`
	Metadata   map[string]any   `json:"Metadata"`
	Parameters []parameter      `json:"Parameters"`
	Steps      []map[string]any `json:"Steps"`
}

type parameter struct {
	Name         string `json:"Name"`
	Type         string `json:"Type"`
	DefaultValue any    `json:"DefaultValue"`
}

// Build renders the preprocess/train/evaluate/condition pipeline for s.
// s must already carry defaults (see Settings.WithDefaults).
func Build(s Settings, roleArn string) (*entities.PipelineDefinition, error) {
	if roleArn == "" {
		return nil, fmt.Errorf("role ARN is required to build pipeline %s", s.Name)
	}

	doc := document{
		Version:  definitionVersion,
		Metadata: map[string]any{},
		Parameters: []parameter{
			{Name: ParamProcessingInstanceType, Type: "String", DefaultValue: s.Parameters.ProcessingInstanceType},
			{Name: ParamTrainingInstanceType, Type: "String", DefaultValue: s.Parameters.TrainingInstanceType},
			{Name: ParamInputDataUri, Type: "String", DefaultValue: s.Parameters.InputDataUri},
			{Name: ParamAccuracyThreshold, Type: "Float", DefaultValue: s.Parameters.AccuracyThreshold},
		},
	}

	var ifSteps []map[string]any
	if s.Register.Enabled {
		ifSteps = append(ifSteps, registerStep(s))
	}

	doc.Steps = []map[string]any{
		preprocessStep(s, roleArn),
		trainStep(s, roleArn),
		evaluateStep(s, roleArn),
		conditionStep(ifSteps),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline definition: %w", err)
	}

	return &entities.PipelineDefinition{
		Name:        s.Name,
		Description: s.Description,
		RoleArn:     roleArn,
		Document:    body,
	}, nil
}

// ParameterNames lists the parameters a start request may override.
func ParameterNames() []string {
	return []string{
		ParamProcessingInstanceType,
		ParamTrainingInstanceType,
		ParamInputDataUri,
		ParamAccuracyThreshold,
	}
}

func get(path string) map[string]any {
	return map[string]any{"Get": path}
}

func stepOutput(step, output string) map[string]any {
	return get(fmt.Sprintf("Steps.%s.ProcessingOutputConfig.Outputs['%s'].S3Output.S3Uri", step, output))
}

func s3Input(name string, uri any, localPath string) map[string]any {
	return map[string]any{
		"InputName":  name,
		"AppManaged": false,
		"S3Input": map[string]any{
			"S3Uri":                  uri,
			"LocalPath":              localPath,
			"S3DataType":             "S3Prefix",
			"S3InputMode":            "File",
			"S3DataDistributionType": "FullyReplicated",
		},
	}
}

func s3Output(s Settings, step, name, localPath string) map[string]any {
	return map[string]any{
		"OutputName": name,
		"AppManaged": false,
		"S3Output": map[string]any{
			"S3Uri":        fmt.Sprintf("%s/%s/%s", s.OutputPrefix, step, name),
			"LocalPath":    localPath,
			"S3UploadMode": "EndOfJob",
		},
	}
}

func processingArguments(s Settings, roleArn, instanceType any, script string, inputs, outputs []map[string]any) map[string]any {
	codeDir := processingBasePath + "/input/code"
	inputs = append(inputs, s3Input("code", script, codeDir))
	return map[string]any{
		"ProcessingResources": map[string]any{
			"ClusterConfig": map[string]any{
				"InstanceType":   instanceType,
				"InstanceCount":  1,
				"VolumeSizeInGB": 30,
			},
		},
		"AppSpecification": map[string]any{
			"ImageUri":            s.Image,
			"ContainerEntrypoint": []string{"python3", path.Join(codeDir, path.Base(script))},
		},
		"RoleArn":          roleArn,
		"ProcessingInputs": inputs,
		"ProcessingOutputConfig": map[string]any{
			"Outputs": outputs,
		},
	}
}

func preprocessStep(s Settings, roleArn string) map[string]any {
	return map[string]any{
		"Name": StepPreprocess,
		"Type": "Processing",
		"Arguments": processingArguments(s, roleArn,
			get("Parameters."+ParamProcessingInstanceType),
			s.Code.Preprocess,
			[]map[string]any{
				s3Input("input-1", get("Parameters."+ParamInputDataUri), processingBasePath+"/input"),
			},
			[]map[string]any{
				s3Output(s, StepPreprocess, "train", processingBasePath+"/output/train"),
				s3Output(s, StepPreprocess, "test", processingBasePath+"/output/test"),
			},
		),
	}
}

func trainStep(s Settings, roleArn string) map[string]any {
	hyper := map[string]string{
		"sagemaker_program":          strconv.Quote("train.py"),
		"sagemaker_submit_directory": strconv.Quote(s.Code.TrainSource),
	}
	for k, v := range s.Hyperparameters {
		hyper[k] = v
	}

	return map[string]any{
		"Name": StepTrain,
		"Type": "Training",
		"Arguments": map[string]any{
			"AlgorithmSpecification": map[string]any{
				"TrainingImage":     s.Image,
				"TrainingInputMode": "File",
			},
			"OutputDataConfig": map[string]any{
				"S3OutputPath": s.OutputPrefix + "/" + StepTrain,
			},
			"StoppingCondition": map[string]any{
				"MaxRuntimeInSeconds": 86400,
			},
			"ResourceConfig": map[string]any{
				"VolumeSizeInGB": 30,
				"InstanceCount":  1,
				"InstanceType":   get("Parameters." + ParamTrainingInstanceType),
			},
			"RoleArn": roleArn,
			"InputDataConfig": []map[string]any{
				{
					"DataSource": map[string]any{
						"S3DataSource": map[string]any{
							"S3DataType":             "S3Prefix",
							"S3Uri":                  stepOutput(StepPreprocess, "train"),
							"S3DataDistributionType": "FullyReplicated",
						},
					},
					"ContentType": "text/csv",
					"ChannelName": "train",
				},
			},
			"HyperParameters": hyper,
		},
	}
}

func evaluateStep(s Settings, roleArn string) map[string]any {
	return map[string]any{
		"Name": StepEvaluate,
		"Type": "Processing",
		"Arguments": processingArguments(s, roleArn,
			consts.DefaultInstanceType,
			s.Code.Evaluate,
			[]map[string]any{
				s3Input("input-1", get("Steps."+StepTrain+".ModelArtifacts.S3ModelArtifacts"), processingBasePath+"/model"),
				s3Input("input-2", stepOutput(StepPreprocess, "test"), processingBasePath+"/test"),
			},
			[]map[string]any{
				s3Output(s, StepEvaluate, "evaluation", processingBasePath+"/evaluation"),
			},
		),
		"PropertyFiles": []map[string]any{
			{
				"PropertyFileName": evaluationReport,
				"OutputName":       "evaluation",
				"FilePath":         "evaluation.json",
			},
		},
	}
}

func conditionStep(ifSteps []map[string]any) map[string]any {
	if ifSteps == nil {
		ifSteps = []map[string]any{}
	}
	return map[string]any{
		"Name": StepCheckAccuracy,
		"Type": "Condition",
		"Arguments": map[string]any{
			"Conditions": []map[string]any{
				{
					"Type": "GreaterThanOrEqualTo",
					"LeftValue": map[string]any{
						"Std:JsonGet": map[string]any{
							"PropertyFile": get("Steps." + StepEvaluate + ".PropertyFiles." + evaluationReport),
							"Path":         "metrics.accuracy",
						},
					},
					"RightValue": get("Parameters." + ParamAccuracyThreshold),
				},
			},
			"IfSteps":   ifSteps,
			"ElseSteps": []map[string]any{},
		},
	}
}

func registerStep(s Settings) map[string]any {
	return map[string]any{
		"Name": StepRegisterModel,
		"Type": "RegisterModel",
		"Arguments": map[string]any{
			"ModelPackageGroupName": s.ModelPackageGroup,
			"ModelApprovalStatus":   s.Register.ApprovalStatus,
			"InferenceSpecification": map[string]any{
				"Containers": []map[string]any{
					{
						"Image":        s.Image,
						"ModelDataUrl": get("Steps." + StepTrain + ".ModelArtifacts.S3ModelArtifacts"),
					},
				},
				"SupportedContentTypes":                   []string{consts.JSONContentType},
				"SupportedResponseMIMETypes":              []string{consts.JSONContentType},
				"SupportedRealtimeInferenceInstanceTypes": []string{consts.DefaultInstanceType},
			},
			"ModelMetrics": map[string]any{
				"ModelQuality": map[string]any{
					"Statistics": map[string]any{
						"ContentType": consts.JSONContentType,
						"S3Uri":       s.OutputPrefix + "/" + StepEvaluate + "/evaluation/evaluation.json",
					},
				},
			},
		},
	}
}
