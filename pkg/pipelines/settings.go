package pipelines

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sagemaker-mlops/release-orchestrator/internal/consts"
)

const sklearnVersion = "1.2-1"

// sklearnImageAccounts are the registry accounts hosting the scikit-learn
// framework image per region.
var sklearnImageAccounts = map[string]string{
	"us-east-1": "683313688378",
	"us-east-2": "257758044811",
	"us-west-2": "246618743249",
	"eu-west-1": "141502667606",
}

type Settings struct {
	Name              string `yaml:"name"`
	Description       string `yaml:"description"`
	BaseJobPrefix     string `yaml:"baseJobPrefix"`
	ModelPackageGroup string `yaml:"modelPackageGroup"`
	Image             string `yaml:"image"`

	Parameters ParameterSettings `yaml:"parameters"`
	Code       CodeSettings      `yaml:"code"`
	Register   RegisterSettings  `yaml:"register"`

	Hyperparameters map[string]string `yaml:"hyperparameters"`
	// OutputPrefix is the S3 prefix receiving step outputs.
	OutputPrefix string `yaml:"outputPrefix"`
}

type ParameterSettings struct {
	ProcessingInstanceType string  `yaml:"processingInstanceType"`
	TrainingInstanceType   string  `yaml:"trainingInstanceType"`
	InputDataUri           string  `yaml:"inputDataUri"`
	AccuracyThreshold      float64 `yaml:"accuracyThreshold"`
}

type CodeSettings struct {
	Preprocess string `yaml:"preprocess"`
	// TrainSource is a sourcedir tarball holding train.py.
	TrainSource string `yaml:"trainSource"`
	Evaluate    string `yaml:"evaluate"`
}

type RegisterSettings struct {
	Enabled bool `yaml:"enabled"`
	// ApprovalStatus is the status new packages are registered with.
	ApprovalStatus string `yaml:"approvalStatus"`
}

type settingsFile struct {
	Pipeline Settings `yaml:"pipeline"`
}

// LoadSettings reads pipeline settings from a YAML file. A missing file
// yields empty settings, to be completed by WithDefaults.
func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config %s: %w", path, err)
	}

	var f settingsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config %s: %w", path, err)
	}
	return &f.Pipeline, nil
}

// WithDefaults fills every unset field from the region and bucket.
func (s Settings) WithDefaults(region, bucket string) (Settings, error) {
	if s.Name == "" {
		s.Name = consts.DefaultPipelineName
	}
	if s.BaseJobPrefix == "" {
		s.BaseJobPrefix = "wine-quality"
	}
	if s.ModelPackageGroup == "" {
		s.ModelPackageGroup = consts.DefaultModelPackageGroup
	}
	if s.Image == "" {
		account, ok := sklearnImageAccounts[region]
		if !ok {
			return s, fmt.Errorf("no scikit-learn image known for region %s, set pipeline.image", region)
		}
		s.Image = fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/sagemaker-scikit-learn:%s-cpu-py3", account, region, sklearnVersion)
	}

	p := &s.Parameters
	if p.ProcessingInstanceType == "" {
		p.ProcessingInstanceType = consts.DefaultInstanceType
	}
	if p.TrainingInstanceType == "" {
		p.TrainingInstanceType = consts.DefaultInstanceType
	}
	if p.AccuracyThreshold == 0 {
		p.AccuracyThreshold = consts.DefaultAccuracyThreshold
	}

	needsBucket := p.InputDataUri == "" || s.Code.Preprocess == "" || s.Code.TrainSource == "" ||
		s.Code.Evaluate == "" || s.OutputPrefix == ""
	if needsBucket && bucket == "" {
		return s, errors.New("S3 bucket is required to derive pipeline data and code locations")
	}
	base := "s3://" + strings.TrimSuffix(bucket, "/")
	if p.InputDataUri == "" {
		p.InputDataUri = base + "/data/wine-quality.csv"
	}
	if s.Code.Preprocess == "" {
		s.Code.Preprocess = base + "/code/preprocess.py"
	}
	if s.Code.TrainSource == "" {
		s.Code.TrainSource = base + "/code/sourcedir.tar.gz"
	}
	if s.Code.Evaluate == "" {
		s.Code.Evaluate = base + "/code/evaluate.py"
	}
	if s.OutputPrefix == "" {
		s.OutputPrefix = base + "/" + s.BaseJobPrefix
	}
	if s.Register.ApprovalStatus == "" {
		s.Register.ApprovalStatus = "PendingManualApproval"
	}
	return s, nil
}
