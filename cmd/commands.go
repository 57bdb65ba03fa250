package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sagemaker-mlops/release-orchestrator/internal/app"
	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/api/dtos"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/config"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/services"
)

var (
	envFile string
	cfg     *config.Config

	deployFlags    dtos.CreateWorkflowRequest
	pipelineConfig string

	cleanupEndpoint string
	cleanupConfirm  string

	rootCmd = &cobra.Command{
		Use:           "release",
		Short:         "Train, gate and deploy the wine-quality model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(envFile)
			if err != nil {
				return entities.NewConfigurationError(err.Error())
			}
			cfg = loaded
			return nil
		},
	}

	deployCmd = &cobra.Command{
		Use:   "deploy",
		Short: "Run the release workflow for a source-control event",
		RunE:  runDeploy,
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Delete an endpoint and its endpoint configuration",
		RunE:  runCleanup,
	}

	endpointsCmd = &cobra.Command{
		Use:   "endpoints",
		Short: "Inspect inference endpoints",
	}
	endpointsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List endpoints with their status",
		RunE:  runListEndpoints,
	}

	pipelineCmd = &cobra.Command{
		Use:   "pipeline",
		Short: "Manage the training pipeline definition",
	}
	pipelineUpsertCmd = &cobra.Command{
		Use:   "upsert",
		Short: "Create or update the pipeline without starting it",
		RunE:  runPipelineUpsert,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")

	f := deployCmd.Flags()
	f.StringVar(&deployFlags.Event, "event", "push", "triggering event: push, pull_request or workflow_dispatch")
	f.StringVar(&deployFlags.Ref, "ref", "", "branch or ref that triggered the run")
	f.StringVar(&deployFlags.Environment, "environment", "", "stage chosen on workflow_dispatch: staging or production")
	f.StringVar(&deployFlags.ModelPackageArn, "model-package-arn", "", "model package to deploy, latest eligible when empty")
	f.StringVar(&deployFlags.EndpointName, "endpoint-name", "", "endpoint name, derived from the stage when empty")
	f.StringVar(&deployFlags.InstanceType, "instance-type", "", "endpoint instance type")
	f.IntVar(&deployFlags.InstanceCount, "instance-count", 0, "endpoint instance count")
	f.StringToStringVar(&deployFlags.Parameters, "param", nil, "pipeline parameter override, NAME=VALUE")
	f.StringVar(&pipelineConfig, "pipeline-config", "", "pipeline settings file")
	_ = deployCmd.MarkFlagRequired("ref")

	cleanupCmd.Flags().StringVar(&cleanupEndpoint, "endpoint-name", "", "endpoint to delete")
	cleanupCmd.Flags().StringVar(&cleanupConfirm, "confirm", "", "must be DELETE")
	_ = cleanupCmd.MarkFlagRequired("endpoint-name")

	pipelineUpsertCmd.Flags().StringVar(&pipelineConfig, "pipeline-config", "", "pipeline settings file")

	endpointsCmd.AddCommand(endpointsListCmd)
	pipelineCmd.AddCommand(pipelineUpsertCmd)
	rootCmd.AddCommand(deployCmd, cleanupCmd, endpointsCmd, pipelineCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func deploymentRequest(flags dtos.CreateWorkflowRequest) (entities.DeploymentRequest, error) {
	if err := flags.Validate(); err != nil {
		return entities.DeploymentRequest{}, entities.NewConfigurationError(err.Error())
	}
	return flags.ToDeploymentRequest(), nil
}

func runDeploy(cmd *cobra.Command, args []string) error {
	request, err := deploymentRequest(deployFlags)
	if err != nil {
		return err
	}
	stage, err := services.ResolveStage(request.Event.Ref, request.Event.ManualStage)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var workflow *services.WorkflowService
	if stage == entities.StageNone {
		logger.Info("Ref does not deploy, skipping release", zap.String("ref", request.Event.Ref))
		workflow = app.SkippedWorkflow(cfg)
	} else {
		workflow, err = newWorkflow(ctx, cfg)
		if err != nil {
			return err
		}
	}

	run, runErr := workflow.Run(ctx, request)
	if run == nil {
		return runErr
	}
	if err := printJSON(cmd, run); err != nil {
		return err
	}
	if err := app.WriteStepSummary(run); err != nil {
		logger.Warn("Failed to write step summary", zap.Error(err))
	}
	return runErr
}

// newWorkflow builds the platform-backed workflow. Run history is kept when
// Postgres is configured and reachable.
var newWorkflow = func(ctx context.Context, cfg *config.Config) (*services.WorkflowService, error) {
	application, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db, err := application.OpenDatabase()
	if err != nil {
		logger.Warn("Run history disabled", zap.Error(err))
		db = nil
	}
	return application.WorkflowService(pipelineConfig, db)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	result, err := application.CleanupService().Cleanup(ctx, cleanupEndpoint, cleanupConfirm)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}

func runListEndpoints(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	endpoints, err := application.CleanupService().ListEndpoints(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd, endpoints)
}

func runPipelineUpsert(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	settings, err := application.PipelineSettings(pipelineConfig)
	if err != nil {
		return entities.NewConfigurationError(err.Error())
	}
	definition, err := application.PipelineDefinition(settings)
	if err != nil {
		return err
	}
	if err := application.PipelineRunner().UpsertPipeline(ctx, definition); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pipeline %s is up to date\n", definition.Name)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
