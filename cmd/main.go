package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

const (
	exitFailure          = 1
	exitInvalidInput     = 2
	exitApprovalRequired = 3
)

func main() {
	logger.Init()

	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode lets CI tell a halted production release apart from a failure.
func exitCode(err error) int {
	switch {
	case errors.Is(err, entities.ErrApprovalRequired):
		return exitApprovalRequired
	case errors.Is(err, entities.ErrConfiguration), errors.Is(err, entities.ErrConfirmationMismatch):
		return exitInvalidInput
	default:
		return exitFailure
	}
}
