package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sagemaker-mlops/release-orchestrator/internal/consts"
	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/internal/utils"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/metrics"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/pipelines"
)

type WorkflowSettings struct {
	ModelPackageGroup       string
	EndpointName            string
	StagingRetentionDays    int
	ProductionRetentionDays int
}

func (s WorkflowSettings) retention(stage entities.Stage) time.Duration {
	days := s.StagingRetentionDays
	if stage == entities.StageProduction {
		days = s.ProductionRetentionDays
	}
	if days <= 0 {
		days = consts.StagingRetentionDays
		if stage == entities.StageProduction {
			days = consts.ProductionRetentionDays
		}
	}
	return time.Duration(days) * 24 * time.Hour
}

func (s WorkflowSettings) retentionDays(stage entities.Stage) int {
	return int(s.retention(stage) / (24 * time.Hour))
}

// WorkflowService runs the release workflow: stage resolution, pipeline
// execution, the production approval gate and the endpoint rollout.
type WorkflowService struct {
	settings    WorkflowSettings
	definition  *entities.PipelineDefinition
	pipelines   *PipelineRunner
	approvals   *ApprovalGate
	registry    ModelRegistry
	endpoints   *EndpointManager
	runRepo     RunRepository
	publisher   SummaryPublisher
	taskManager TaskManager
}

type WorkflowOption func(*WorkflowService)

// WithRunRepository persists every run.
func WithRunRepository(repo RunRepository) WorkflowOption {
	return func(w *WorkflowService) {
		w.runRepo = repo
	}
}

// WithSummaryPublisher uploads the summary of every finished run.
func WithSummaryPublisher(publisher SummaryPublisher) WorkflowOption {
	return func(w *WorkflowService) {
		w.publisher = publisher
	}
}

// WithTaskManager enables Submit, which runs workflows in the background.
func WithTaskManager(taskManager TaskManager) WorkflowOption {
	return func(w *WorkflowService) {
		w.taskManager = taskManager
	}
}

func NewWorkflowService(
	settings WorkflowSettings,
	definition *entities.PipelineDefinition,
	pipelineRunner *PipelineRunner,
	registry ModelRegistry,
	endpointManager *EndpointManager,
	opts ...WorkflowOption,
) *WorkflowService {
	w := &WorkflowService{
		settings:   settings,
		definition: definition,
		pipelines:  pipelineRunner,
		approvals:  NewApprovalGate(registry),
		registry:   registry,
		endpoints:  endpointManager,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.taskManager != nil {
		w.taskManager.Start()
	}
	return w
}

// Run executes one workflow instance to completion. The returned run is
// always non-nil; err is the error that ended it, an ApprovalRequired halt
// included. A run that cannot be recorded fails before any platform call.
func (w *WorkflowService) Run(ctx context.Context, request entities.DeploymentRequest) (*entities.WorkflowRun, error) {
	run := w.newRun(request)
	stage, resolveErr := ResolveStage(request.Event.Ref, request.Event.ManualStage)
	if resolveErr != nil {
		stage = entities.StageNone
	}
	w.setStage(run, stage)

	if w.runRepo != nil {
		if err := w.runRepo.CreateRun(run); err != nil {
			logger.Error("failed to create workflow run", zap.String("runId", run.ID.String()), zap.Error(err))
			createErr := entities.NewInfrastructureError("workflow_runs", "create workflow run", err)
			w.finish(ctx, run, createErr)
			return run, createErr
		}
	}

	if resolveErr != nil {
		w.finish(ctx, run, resolveErr)
		return run, resolveErr
	}
	return run, w.execute(ctx, run)
}

// Submit records a pending run and queues it on the task manager.
// Configuration errors are returned synchronously and nothing is queued.
func (w *WorkflowService) Submit(ctx context.Context, request entities.DeploymentRequest) (*entities.WorkflowRun, error) {
	if w.taskManager == nil || w.runRepo == nil {
		return nil, errors.New("workflow submission requires a task manager and a run repository")
	}

	stage, err := ResolveStage(request.Event.Ref, request.Event.ManualStage)
	if err != nil {
		return nil, err
	}
	if _, err := w.prepareDefinition(request.Parameters); err != nil {
		return nil, err
	}

	run := w.newRun(request)
	w.setStage(run, stage)
	run.Status = entities.RunStatusPending
	if err := w.runRepo.CreateRun(run); err != nil {
		logger.Error("failed to create workflow run", zap.String("runId", run.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to create workflow run: %w", err)
	}

	logger.Info("Workflow run queued", zap.String("runId", run.ID.String()), zap.String("stage", stage.String()))

	taskCtx := context.WithoutCancel(ctx)
	queued := *run
	w.taskManager.AddTask(func() {
		_ = w.execute(taskCtx, &queued)
	})
	return run, nil
}

func (w *WorkflowService) GetRun(id string) (*entities.WorkflowRun, error) {
	if w.runRepo == nil {
		return nil, errors.New("no run repository configured")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, entities.NewConfigurationError(fmt.Sprintf("invalid run id %q", id))
	}
	return w.runRepo.GetRunByID(id)
}

func (w *WorkflowService) ListRuns(stage entities.Stage, limit int) ([]*entities.WorkflowRun, error) {
	if w.runRepo == nil {
		return nil, errors.New("no run repository configured")
	}
	return w.runRepo.ListRuns(stage, limit)
}

// PurgeExpiredRuns deletes run records past their retention.
func (w *WorkflowService) PurgeExpiredRuns() (int64, error) {
	if w.runRepo == nil {
		return 0, nil
	}
	n, err := w.runRepo.DeleteExpiredRuns(time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired runs: %w", err)
	}
	if n > 0 {
		logger.Info("Purged expired workflow runs", zap.Int64("count", n))
	}
	return n, nil
}

// StartHousekeeping queues PurgeExpiredRuns every interval until ctx is done.
func (w *WorkflowService) StartHousekeeping(ctx context.Context, interval time.Duration) {
	if w.taskManager == nil || w.runRepo == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.taskManager.AddTask(func() {
					if _, err := w.PurgeExpiredRuns(); err != nil {
						logger.Error("housekeeping failed", zap.Error(err))
					}
				})
			}
		}
	}()
}

func (w *WorkflowService) newRun(request entities.DeploymentRequest) *entities.WorkflowRun {
	return &entities.WorkflowRun{
		ID:        uuid.New(),
		Status:    entities.RunStatusRunning,
		Request:   request,
		StartedAt: time.Now().UTC(),
		Summary: entities.RunSummary{
			Ref:   request.Event.Ref,
			Event: request.Event.Name,
		},
	}
}

func (w *WorkflowService) setStage(run *entities.WorkflowRun, stage entities.Stage) {
	run.Stage = stage
	run.Summary.Stage = stage
	run.ExpiresAt = run.StartedAt.Add(w.settings.retention(stage))
}

func (w *WorkflowService) execute(ctx context.Context, run *entities.WorkflowRun) error {
	stage := run.Stage
	request := run.Request

	if stage == entities.StageNone {
		logger.Info("No deployment stage for trigger, skipping",
			zap.String("runId", run.ID.String()),
			zap.String("ref", request.Event.Ref),
		)
		w.finish(ctx, run, nil)
		return nil
	}

	if run.Status != entities.RunStatusRunning {
		run.Status = entities.RunStatusRunning
		w.save(run)
	}

	definition, err := w.prepareDefinition(request.Parameters)
	if err != nil {
		return w.fail(ctx, run, err)
	}
	run.Summary.PipelineName = definition.Name

	logger.Info("Running pipeline",
		zap.String("runId", run.ID.String()),
		zap.String("stage", stage.String()),
		zap.String("pipeline", definition.Name),
	)
	execution, err := w.pipelines.RunPipeline(ctx, stage, definition)
	if execution != nil {
		run.Summary.ExecutionArn = execution.Arn
		run.Summary.ExecutionStatus = execution.Status
	}
	if err != nil {
		return w.fail(ctx, run, err)
	}
	w.save(run)

	pkg, err := w.selectModelPackage(ctx, stage, request.ModelPackageArn)
	if pkg != nil {
		run.Summary.ModelPackageArn = pkg.Arn
		run.Summary.ApprovalStatus = pkg.ApprovalStatus
		run.Summary.Metrics = pkg.Metrics
	}
	if err != nil {
		return w.fail(ctx, run, err)
	}

	endpointName := request.EndpointName
	if endpointName == "" {
		endpointName = utils.GetStageEndpointName(w.settings.EndpointName, stage)
	}
	instanceType := request.InstanceType
	if instanceType == "" {
		instanceType = consts.DefaultInstanceType
	}
	instanceCount := request.InstanceCount
	if instanceCount == 0 {
		instanceCount = consts.DefaultInstanceCount
	}
	run.Summary.EndpointName = endpointName
	run.Summary.InstanceType = instanceType
	run.Summary.InstanceCount = instanceCount

	logger.Info("Deploying endpoint",
		zap.String("runId", run.ID.String()),
		zap.String("stage", stage.String()),
		zap.String("endpoint", endpointName),
		zap.String("modelPackageArn", pkg.Arn),
	)
	endpoint, err := w.endpoints.DeployEndpoint(ctx, endpointName, pkg.Arn, instanceType, instanceCount)
	if endpoint != nil {
		run.Summary.EndpointStatus = endpoint.Status
		run.Summary.EndpointConfig = endpoint.ConfigName
	}
	if err != nil {
		return w.fail(ctx, run, err)
	}

	w.finish(ctx, run, nil)
	return nil
}

// selectModelPackage resolves the package to deploy. Production always goes
// through the approval gate. Without an explicit ARN staging takes the newest
// package that is not Rejected and production the newest Approved one.
func (w *WorkflowService) selectModelPackage(
	ctx context.Context,
	stage entities.Stage,
	modelPackageArn string,
) (*entities.ModelPackage, error) {
	if modelPackageArn == "" {
		var (
			pkg *entities.ModelPackage
			err error
		)
		if stage == entities.StageProduction {
			pkg, err = w.approvals.LatestApproved(ctx, w.settings.ModelPackageGroup)
		} else {
			pkg, err = w.latestPackage(ctx)
		}
		if err != nil {
			return nil, withStage(err, stage)
		}
		modelPackageArn = pkg.Arn
		if stage != entities.StageProduction {
			return pkg, nil
		}
	}

	if stage == entities.StageProduction {
		pkg, err := w.approvals.RequireApproval(ctx, modelPackageArn)
		return pkg, withStage(err, stage)
	}
	pkg, err := w.approvals.describe(ctx, modelPackageArn)
	if err != nil {
		return nil, withStage(err, stage)
	}
	if pkg.ApprovalStatus == entities.ApprovalStatusRejected {
		return pkg, withStage(entities.NewConfigurationError(
			fmt.Sprintf("model package %s was rejected and cannot be deployed", modelPackageArn)), stage)
	}
	return pkg, nil
}

// latestPackage returns the newest package of the group that a reviewer has
// not rejected, Approved or PendingManualApproval.
func (w *WorkflowService) latestPackage(ctx context.Context) (*entities.ModelPackage, error) {
	group := w.settings.ModelPackageGroup
	if group == "" {
		return nil, entities.NewConfigurationError("model package group is required")
	}

	var latest *entities.ModelPackage
	for _, status := range []entities.ApprovalStatus{
		entities.ApprovalStatusApproved,
		entities.ApprovalStatusPendingManualApproval,
	} {
		pkg, err := w.registry.LatestModelPackage(ctx, group, status)
		if err != nil {
			return nil, entities.NewInfrastructureError(group, "list model packages", err)
		}
		if pkg != nil && (latest == nil || isNewerPackage(pkg, latest)) {
			latest = pkg
		}
	}
	if latest == nil {
		return nil, entities.NewConfigurationError(fmt.Sprintf("no deployable model package in group %s", group))
	}
	return latest, nil
}

func isNewerPackage(a, b *entities.ModelPackage) bool {
	if a.Version > 0 && b.Version > 0 {
		return a.Version > b.Version
	}
	return a.CreationTime.After(b.CreationTime)
}

// prepareDefinition copies the pipeline definition with the request's
// parameter overrides applied.
func (w *WorkflowService) prepareDefinition(overrides map[string]string) (*entities.PipelineDefinition, error) {
	if w.definition == nil {
		return nil, entities.NewConfigurationError("no pipeline definition configured")
	}
	def := *w.definition
	def.Parameters = make(map[string]string, len(w.definition.Parameters)+len(overrides))
	for k, v := range w.definition.Parameters {
		def.Parameters[k] = v
	}
	allowed := pipelines.ParameterNames()
	for k, v := range overrides {
		if !slices.Contains(allowed, k) {
			return nil, entities.NewConfigurationError(fmt.Sprintf("unknown pipeline parameter %q", k))
		}
		def.Parameters[k] = v
	}
	return &def, nil
}

func (w *WorkflowService) fail(ctx context.Context, run *entities.WorkflowRun, err error) error {
	err = withStage(err, run.Stage)
	w.finish(ctx, run, err)
	return err
}

func (w *WorkflowService) finish(ctx context.Context, run *entities.WorkflowRun, err error) {
	now := time.Now().UTC()
	run.FinishedAt = &now

	switch {
	case err == nil && run.Stage == entities.StageNone:
		run.Status = entities.RunStatusSkipped
	case err == nil:
		run.Status = entities.RunStatusSucceeded
	case errors.Is(err, entities.ErrApprovalRequired):
		run.Status = entities.RunStatusHalted
	default:
		run.Status = entities.RunStatusFailed
	}

	if err != nil {
		run.Summary.Error = err.Error()
		if kind, ok := entities.KindOf(err); ok {
			run.Summary.ErrorKind = kind
			metrics.ObserveError(run.Stage.String(), string(kind))
		}
	}
	metrics.ObserveRun(run.Stage.String(), string(run.Status))

	fields := []zap.Field{
		zap.String("runId", run.ID.String()),
		zap.String("stage", run.Stage.String()),
		zap.String("status", string(run.Status)),
	}
	switch run.Status {
	case entities.RunStatusFailed:
		logger.Error("Workflow run failed", append(fields, zap.Error(err))...)
	case entities.RunStatusHalted:
		logger.Warn("Workflow run halted", append(fields, zap.Error(err))...)
	default:
		logger.Info("Workflow run finished", fields...)
	}

	if w.publisher != nil && run.Stage != entities.StageNone {
		uri, perr := w.publisher.PublishSummary(ctx, run, w.settings.retentionDays(run.Stage))
		if perr != nil {
			logger.Error("failed to publish run summary", zap.String("runId", run.ID.String()), zap.Error(perr))
		} else {
			run.SummaryUri = uri
		}
	}
	w.save(run)
}

func (w *WorkflowService) save(run *entities.WorkflowRun) {
	if w.runRepo == nil {
		return
	}
	if err := w.runRepo.UpdateRun(run); err != nil {
		logger.Error("failed to update workflow run", zap.String("runId", run.ID.String()), zap.Error(err))
	}
}
