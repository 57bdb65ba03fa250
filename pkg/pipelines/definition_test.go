package pipelines

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roleArn = "arn:aws:iam::123456789012:role/SageMakerExecutionRole"

func defaultSettings(t *testing.T) Settings {
	t.Helper()
	s, err := Settings{Register: RegisterSettings{Enabled: true}}.WithDefaults("us-east-1", "ml-bucket")
	require.NoError(t, err)
	return s
}

func TestWithDefaults(t *testing.T) {
	s := defaultSettings(t)

	assert.Equal(t, "WineQualityPipeline", s.Name)
	assert.Equal(t, "683313688378.dkr.ecr.us-east-1.amazonaws.com/sagemaker-scikit-learn:1.2-1-cpu-py3", s.Image)
	assert.Equal(t, "s3://ml-bucket/data/wine-quality.csv", s.Parameters.InputDataUri)
	assert.Equal(t, 0.70, s.Parameters.AccuracyThreshold)
	assert.Equal(t, "PendingManualApproval", s.Register.ApprovalStatus)
}

func TestWithDefaultsNeedsImageForUnknownRegion(t *testing.T) {
	_, err := Settings{}.WithDefaults("ap-south-2", "ml-bucket")
	assert.Error(t, err)
}

func TestWithDefaultsNeedsBucket(t *testing.T) {
	_, err := Settings{}.WithDefaults("us-east-1", "")
	assert.Error(t, err)
}

func TestBuildProducesOrderedSteps(t *testing.T) {
	def, err := Build(defaultSettings(t), roleArn)
	require.NoError(t, err)
	assert.Equal(t, "WineQualityPipeline", def.Name)
	assert.Equal(t, roleArn, def.RoleArn)

	var doc struct {
		Version    string
		Parameters []struct {
			Name         string
			Type         string
			DefaultValue any
		}
		Steps []struct {
			Name      string
			Type      string
			Arguments map[string]any
		}
	}
	require.NoError(t, json.Unmarshal(def.Document, &doc))

	assert.Equal(t, "2020-12-01", doc.Version)
	names := []string{}
	for _, p := range doc.Parameters {
		names = append(names, p.Name)
	}
	assert.Equal(t, ParameterNames(), names)

	require.Len(t, doc.Steps, 4)
	assert.Equal(t, StepPreprocess, doc.Steps[0].Name)
	assert.Equal(t, "Training", doc.Steps[1].Type)
	assert.Equal(t, StepEvaluate, doc.Steps[2].Name)
	assert.Equal(t, "Condition", doc.Steps[3].Type)

	ifSteps := doc.Steps[3].Arguments["IfSteps"].([]any)
	require.Len(t, ifSteps, 1)
	register := ifSteps[0].(map[string]any)
	assert.Equal(t, "RegisterModel", register["Type"])
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := Build(defaultSettings(t), roleArn)
	require.NoError(t, err)
	b, err := Build(defaultSettings(t), roleArn)
	require.NoError(t, err)
	assert.JSONEq(t, string(a.Document), string(b.Document))
	assert.Equal(t, a.Document, b.Document)
}

func TestBuildRequiresRole(t *testing.T) {
	_, err := Build(defaultSettings(t), "")
	assert.Error(t, err)
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  name: CustomPipeline
  parameters:
    accuracyThreshold: 0.8
  hyperparameters:
    n_estimators: "50"
`), 0o600))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "CustomPipeline", s.Name)
	assert.Equal(t, 0.8, s.Parameters.AccuracyThreshold)
	assert.Equal(t, "50", s.Hyperparameters["n_estimators"])

	missing, err := LoadSettings(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Settings{}, *missing)
}

func TestLoadSettingsRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [unterminated"), 0o600))
	_, err := LoadSettings(path)
	assert.Error(t, err)
}
