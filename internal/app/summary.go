package app

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

const stepSummaryEnv = "GITHUB_STEP_SUMMARY"

// RenderMarkdown formats run as the job summary shown on the CI run page.
func RenderMarkdown(run *entities.WorkflowRun) string {
	s := run.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "## Model release: %s\n\n", run.Stage)
	fmt.Fprintf(&b, "**Status:** %s\n\n", run.Status)
	b.WriteString("| Field | Value |\n|---|---|\n")

	row := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "| %s | `%s` |\n", name, value)
		}
	}
	row("Run", run.ID.String())
	row("Ref", s.Ref)
	row("Event", s.Event)
	row("Pipeline", s.PipelineName)
	row("Execution", s.ExecutionArn)
	row("Execution status", string(s.ExecutionStatus))
	row("Model package", s.ModelPackageArn)
	row("Approval status", string(s.ApprovalStatus))
	row("Endpoint", s.EndpointName)
	row("Endpoint status", string(s.EndpointStatus))
	row("Endpoint config", s.EndpointConfig)
	if s.InstanceCount > 0 {
		row("Instances", fmt.Sprintf("%d x %s", s.InstanceCount, s.InstanceType))
	}
	row("Summary artifact", run.SummaryUri)

	if len(s.Metrics) > 0 {
		names := make([]string, 0, len(s.Metrics))
		for name := range s.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\n### Metrics\n\n")
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %.4f\n", name, s.Metrics[name])
		}
	}

	if s.ErrorKind != "" {
		fmt.Fprintf(&b, "\n### %s\n\n```\n%s\n```\n", s.ErrorKind, s.Error)
	}
	return b.String()
}

// WriteStepSummary appends the markdown summary to $GITHUB_STEP_SUMMARY. It
// does nothing outside GitHub Actions.
func WriteStepSummary(run *entities.WorkflowRun) error {
	path := os.Getenv(stepSummaryEnv)
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open step summary: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(RenderMarkdown(run)); err != nil {
		return fmt.Errorf("failed to write step summary: %w", err)
	}
	return nil
}
