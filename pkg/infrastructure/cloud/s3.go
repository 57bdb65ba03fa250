package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sagemaker-mlops/release-orchestrator/internal/consts"
	"github.com/sagemaker-mlops/release-orchestrator/internal/utils"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SummaryStore keeps run summaries in the artifacts bucket. Objects are
// tagged with retention-days so bucket lifecycle rules can expire them per
// stage.
type SummaryStore struct {
	client S3API
	bucket string
}

func NewSummaryStore(cfg aws.Config, bucket string) (*SummaryStore, error) {
	return NewSummaryStoreWithAPI(s3.NewFromConfig(cfg), bucket)
}

func NewSummaryStoreWithAPI(client S3API, bucket string) (*SummaryStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}
	return &SummaryStore{client: client, bucket: bucket}, nil
}

func (s *SummaryStore) PublishSummary(ctx context.Context, run *entities.WorkflowRun, retentionDays int) (string, error) {
	body, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}

	key := utils.GetRunSummaryKey(run.Stage, run.ID)
	tags := url.Values{}
	tags.Set("retention-days", strconv.Itoa(retentionDays))
	tags.Set("stage", string(run.Stage))
	tags.Set("status", string(run.Status))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(consts.JSONContentType),
		Tagging:     aws.String(tags.Encode()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload run summary %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
