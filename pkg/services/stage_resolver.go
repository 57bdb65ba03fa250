package services

import (
	"fmt"
	"strings"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

const (
	stagingBranch    = "develop"
	productionBranch = "main"
	branchRefPrefix  = "refs/heads/"
)

// ResolveStage maps a trigger to its deployment stage. A manual stage wins
// over the ref; refs other than develop and main resolve to StageNone.
func ResolveStage(ref, manualStage string) (entities.Stage, error) {
	if strings.TrimSpace(manualStage) != "" {
		stage, ok := entities.ParseStage(manualStage)
		if !ok {
			return "", entities.NewConfigurationError(
				fmt.Sprintf("unknown environment %q, expected staging or production", manualStage),
			)
		}
		return stage, nil
	}

	switch strings.TrimPrefix(strings.TrimSpace(ref), branchRefPrefix) {
	case stagingBranch:
		return entities.StageStaging, nil
	case productionBranch:
		return entities.StageProduction, nil
	default:
		return entities.StageNone, nil
	}
}
