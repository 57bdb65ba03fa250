package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sagemaker-mlops/release-orchestrator/internal/retry"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

var fastPolicy = retry.Policy{
	InitialInterval: time.Millisecond,
	Multiplier:      1,
	MaxInterval:     time.Millisecond,
	MaxAttempts:     20,
	Timeout:         time.Second,
}

const (
	testRoleArn    = "arn:aws:iam::123456789012:role/SageMakerExecutionRole"
	testPackageArn = "arn:aws:sagemaker:us-east-1:123456789012:model-package/wine-quality-models/3"
	wellFormed     = `{"predictions": [5, 5, 6], "probabilities": [[0.1, 0.9], [0.2, 0.8], [0.6, 0.4]]}`
)

// fakePlatform keeps platform resources in memory. Endpoints move one status
// per DescribeEndpoint call, the way a real rollout progresses between polls.
type fakePlatform struct {
	mu sync.Mutex

	pipelines map[string]*entities.PipelineDefinition
	// executionStatuses is replayed, one entry per describe call, for every
	// execution started. The last entry repeats.
	executionStatuses []entities.ExecutionStatus
	executions        map[string]int
	failureReason     string

	packages []*entities.ModelPackage

	models    map[string]entities.ModelSpec
	configs   map[string]entities.EndpointConfig
	endpoints map[string]*entities.Endpoint

	invokeResponse string
	invokeErr      error
	describeErr    error
	pipelineErr    error
	// frozen stops endpoints from progressing between polls.
	frozen bool
	// rollbackReason, when set, makes UpdateEndpoint fail on the platform
	// side: the endpoint returns to InService on its previous config.
	rollbackReason string

	calls map[string]int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		pipelines:         map[string]*entities.PipelineDefinition{},
		executionStatuses: []entities.ExecutionStatus{entities.ExecutionStatusExecuting, entities.ExecutionStatusSucceeded},
		executions:        map[string]int{},
		models:            map[string]entities.ModelSpec{},
		configs:           map[string]entities.EndpointConfig{},
		endpoints:         map[string]*entities.Endpoint{},
		invokeResponse:    wellFormed,
		calls:             map[string]int{},
	}
}

func (f *fakePlatform) record(op string) {
	f.calls[op]++
}

func (f *fakePlatform) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// mutations counts every call that changes platform state.
func (f *fakePlatform) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for op, c := range f.calls {
		switch op {
		case "CreatePipeline", "UpdatePipeline", "StartPipelineExecution", "CreateModel",
			"CreateEndpointConfig", "DeleteEndpointConfig", "CreateEndpoint", "UpdateEndpoint", "DeleteEndpoint":
			n += c
		}
	}
	return n
}

func (f *fakePlatform) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakePlatform) putEndpoint(name, configName string, status entities.EndpointStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints[name] = &entities.Endpoint{Name: name, ConfigName: configName, Status: status}
}

func (f *fakePlatform) DescribePipeline(_ context.Context, name string) (*entities.PipelineDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribePipeline")
	if f.pipelineErr != nil {
		return nil, f.pipelineErr
	}
	return f.pipelines[name], nil
}

func (f *fakePlatform) CreatePipeline(_ context.Context, definition *entities.PipelineDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreatePipeline")
	f.pipelines[definition.Name] = definition
	return nil
}

func (f *fakePlatform) UpdatePipeline(_ context.Context, definition *entities.PipelineDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdatePipeline")
	f.pipelines[definition.Name] = definition
	return nil
}

func (f *fakePlatform) StartPipelineExecution(_ context.Context, name string, _ map[string]string, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StartPipelineExecution")
	if _, ok := f.pipelines[name]; !ok {
		return "", fmt.Errorf("pipeline %s does not exist", name)
	}
	arn := fmt.Sprintf("arn:aws:sagemaker:us-east-1:123456789012:pipeline/%s/execution/%d", name, len(f.executions)+1)
	f.executions[arn] = 0
	return arn, nil
}

func (f *fakePlatform) DescribePipelineExecution(_ context.Context, arn string) (*entities.PipelineExecution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribePipelineExecution")
	i, ok := f.executions[arn]
	if !ok {
		return nil, nil
	}
	if i >= len(f.executionStatuses) {
		i = len(f.executionStatuses) - 1
	}
	f.executions[arn]++
	e := &entities.PipelineExecution{Arn: arn, Status: f.executionStatuses[i]}
	if e.Status == entities.ExecutionStatusFailed {
		e.FailureReason = f.failureReason
	}
	return e, nil
}

func (f *fakePlatform) DescribeModelPackage(_ context.Context, arn string) (*entities.ModelPackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeModelPackage")
	for _, p := range f.packages {
		if p.Arn == arn {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakePlatform) LatestModelPackage(_ context.Context, group string, status entities.ApprovalStatus) (*entities.ModelPackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LatestModelPackage")
	candidates := []*entities.ModelPackage{}
	for _, p := range f.packages {
		if p.GroupName == group && (status == "" || p.ApprovalStatus == status) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Version > candidates[j].Version })
	c := *candidates[0]
	return &c, nil
}

func (f *fakePlatform) DescribeModel(_ context.Context, name string) (*entities.ModelSpec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeModel")
	if m, ok := f.models[name]; ok {
		return &m, nil
	}
	return nil, nil
}

func (f *fakePlatform) CreateModel(_ context.Context, model entities.ModelSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateModel")
	f.models[model.Name] = model
	return nil
}

func (f *fakePlatform) DescribeEndpointConfig(_ context.Context, name string) (*entities.EndpointConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeEndpointConfig")
	if c, ok := f.configs[name]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakePlatform) CreateEndpointConfig(_ context.Context, config entities.EndpointConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateEndpointConfig")
	f.configs[config.Name] = config
	return nil
}

func (f *fakePlatform) DeleteEndpointConfig(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteEndpointConfig")
	delete(f.configs, name)
	return nil
}

func (f *fakePlatform) DescribeEndpoint(_ context.Context, name string) (*entities.Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeEndpoint")
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	e, ok := f.endpoints[name]
	if !ok {
		return nil, nil
	}
	c := *e
	if f.frozen {
		return &c, nil
	}
	switch e.Status {
	case entities.EndpointStatusCreating, entities.EndpointStatusUpdating:
		e.Status = entities.EndpointStatusInService
	case entities.EndpointStatusDeleting:
		delete(f.endpoints, name)
	}
	return &c, nil
}

func (f *fakePlatform) CreateEndpoint(_ context.Context, name, configName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateEndpoint")
	if _, ok := f.endpoints[name]; ok {
		return errors.New("endpoint already exists")
	}
	f.endpoints[name] = &entities.Endpoint{Name: name, ConfigName: configName, Status: entities.EndpointStatusCreating}
	return nil
}

func (f *fakePlatform) UpdateEndpoint(_ context.Context, name, configName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateEndpoint")
	e, ok := f.endpoints[name]
	if !ok {
		return errors.New("endpoint does not exist")
	}
	if f.rollbackReason != "" {
		e.FailureReason = f.rollbackReason
	} else {
		e.ConfigName = configName
	}
	e.Status = entities.EndpointStatusUpdating
	return nil
}

func (f *fakePlatform) DeleteEndpoint(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteEndpoint")
	e, ok := f.endpoints[name]
	if !ok {
		return errors.New("endpoint does not exist")
	}
	e.Status = entities.EndpointStatusDeleting
	return nil
}

func (f *fakePlatform) ListEndpoints(_ context.Context) ([]*entities.Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListEndpoints")
	out := make([]*entities.Endpoint, 0, len(f.endpoints))
	for _, e := range f.endpoints {
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakePlatform) InvokeEndpoint(_ context.Context, _ string, _ string, _ []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InvokeEndpoint")
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	return []byte(f.invokeResponse), nil
}

type memoryRunRepository struct {
	mu   sync.Mutex
	runs map[string]entities.WorkflowRun
	// createErr fails every CreateRun.
	createErr error
}

func newMemoryRunRepository() *memoryRunRepository {
	return &memoryRunRepository{runs: map[string]entities.WorkflowRun{}}
}

func (r *memoryRunRepository) CreateRun(run *entities.WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.runs[run.ID.String()] = *run
	return nil
}

func (r *memoryRunRepository) UpdateRun(run *entities.WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID.String()]; !ok {
		return errors.New("run not found")
	}
	r.runs[run.ID.String()] = *run
	return nil
}

func (r *memoryRunRepository) GetRunByID(id string) (*entities.WorkflowRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (r *memoryRunRepository) ListRuns(stage entities.Stage, _ int) ([]*entities.WorkflowRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entities.WorkflowRun{}
	for _, run := range r.runs {
		if stage == "" || run.Stage == stage {
			c := run
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memoryRunRepository) DeleteExpiredRuns(now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, run := range r.runs {
		if run.ExpiresAt.Before(now) {
			delete(r.runs, id)
			n++
		}
	}
	return n, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []entities.WorkflowRun
	retention []int
}

func (p *recordingPublisher) PublishSummary(_ context.Context, run *entities.WorkflowRun, retentionDays int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, *run)
	p.retention = append(p.retention, retentionDays)
	return fmt.Sprintf("s3://ml-bucket/workflow-runs/%s/%s.json", run.Stage, run.ID), nil
}

// inlineTaskManager runs tasks synchronously.
type inlineTaskManager struct {
	started bool
}

func (m *inlineTaskManager) Start() {
	m.started = true
}

func (m *inlineTaskManager) AddTask(task entities.Task) {
	task()
}

func (m *inlineTaskManager) Stop() {}
