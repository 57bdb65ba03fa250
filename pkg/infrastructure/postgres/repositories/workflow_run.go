package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/infrastructure/postgres/schemas"
)

const defaultListLimit = 50

type WorkflowRunRepository struct {
	db *gorm.DB
}

func NewWorkflowRunRepository(db *gorm.DB) *WorkflowRunRepository {
	return &WorkflowRunRepository{db: db}
}

func (r *WorkflowRunRepository) CreateRun(run *entities.WorkflowRun) error {
	row, err := toSchema(run)
	if err != nil {
		return err
	}
	return r.db.Create(row).Error
}

func (r *WorkflowRunRepository) UpdateRun(run *entities.WorkflowRun) error {
	row, err := toSchema(run)
	if err != nil {
		return err
	}
	return r.db.Model(&schemas.WorkflowRun{}).Where("id = ?", run.ID).Updates(map[string]any{
		"status":            row.Status,
		"endpoint_name":     row.EndpointName,
		"model_package_arn": row.ModelPackageArn,
		"execution_arn":     row.ExecutionArn,
		"error_kind":        row.ErrorKind,
		"summary":           row.Summary,
		"summary_uri":       row.SummaryUri,
		"finished_at":       row.FinishedAt,
	}).Error
}

func (r *WorkflowRunRepository) GetRunByID(id string) (*entities.WorkflowRun, error) {
	var row schemas.WorkflowRun
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toEntity(&row)
}

// ListRuns returns the newest runs first, optionally filtered by stage.
func (r *WorkflowRunRepository) ListRuns(stage entities.Stage, limit int) ([]*entities.WorkflowRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := r.db.Order("started_at DESC").Limit(limit)
	if stage != "" {
		query = query.Where("stage = ?", stage)
	}

	var rows []schemas.WorkflowRun
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	runs := make([]*entities.WorkflowRun, 0, len(rows))
	for i := range rows {
		run, err := toEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *WorkflowRunRepository) DeleteExpiredRuns(now time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", now).Delete(&schemas.WorkflowRun{})
	return result.RowsAffected, result.Error
}

func toSchema(run *entities.WorkflowRun) (*schemas.WorkflowRun, error) {
	request, err := json.Marshal(run.Request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run request: %w", err)
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run summary: %w", err)
	}
	return &schemas.WorkflowRun{
		ID:              run.ID,
		Stage:           run.Stage,
		Status:          run.Status,
		Ref:             run.Request.Event.Ref,
		Event:           run.Request.Event.Name,
		EndpointName:    run.Summary.EndpointName,
		ModelPackageArn: run.Summary.ModelPackageArn,
		ExecutionArn:    run.Summary.ExecutionArn,
		ErrorKind:       string(run.Summary.ErrorKind),
		Request:         datatypes.JSON(request),
		Summary:         datatypes.JSON(summary),
		SummaryUri:      run.SummaryUri,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		ExpiresAt:       run.ExpiresAt,
	}, nil
}

func toEntity(row *schemas.WorkflowRun) (*entities.WorkflowRun, error) {
	run := &entities.WorkflowRun{
		ID:         row.ID,
		Stage:      row.Stage,
		Status:     row.Status,
		SummaryUri: row.SummaryUri,
		StartedAt:  row.StartedAt,
		FinishedAt: row.FinishedAt,
		ExpiresAt:  row.ExpiresAt,
	}
	if err := json.Unmarshal(row.Request, &run.Request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run request %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Summary, &run.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary %s: %w", row.ID, err)
	}
	return run, nil
}
