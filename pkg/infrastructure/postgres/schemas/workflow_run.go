package schemas

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

type WorkflowRun struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey;column:id"`
	Stage           entities.Stage     `gorm:"column:stage;not null;index"`
	Status          entities.RunStatus `gorm:"column:status;not null"`
	Ref             string             `gorm:"column:ref"`
	Event           string             `gorm:"column:event"`
	EndpointName    string             `gorm:"column:endpoint_name"`
	ModelPackageArn string             `gorm:"column:model_package_arn"`
	ExecutionArn    string             `gorm:"column:execution_arn"`
	ErrorKind       string             `gorm:"column:error_kind"`
	Request         datatypes.JSON     `gorm:"type:jsonb;not null;column:request"`
	Summary         datatypes.JSON     `gorm:"type:jsonb;not null;column:summary"`
	SummaryUri      string             `gorm:"column:summary_uri"`
	StartedAt       time.Time          `gorm:"column:started_at;not null"`
	FinishedAt      *time.Time         `gorm:"column:finished_at"`
	ExpiresAt       time.Time          `gorm:"column:expires_at;not null;index"`
	CreatedAt       time.Time          `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime;column:updated_at"`
}

func (WorkflowRun) TableName() string {
	return "workflow_runs"
}
