package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/sagemaker-mlops/release-orchestrator/internal/consts"
	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/internal/retry"
)

type PollConfig struct {
	Interval    time.Duration `validate:"gt=0"`
	MaxInterval time.Duration `validate:"gtefield=Interval"`
	Multiplier  float64       `validate:"gte=1"`
	Timeout     time.Duration `validate:"gt=0"`
}

// Policy turns the poll settings into a retry policy bounded by Timeout.
func (p PollConfig) Policy() retry.Policy {
	return retry.Policy{
		InitialInterval: p.Interval,
		Multiplier:      p.Multiplier,
		MaxInterval:     p.MaxInterval,
		Timeout:         p.Timeout,
	}
}

type PostgresConfig struct {
	User     string
	Host     string
	Password string
	Database string
	Port     string
}

func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

type Config struct {
	AWSRegion         string `validate:"required"`
	AWSAccessKeyID    string
	AWSSecretKey      string `validate:"required_with=AWSAccessKeyID"`
	AWSSessionToken   string
	AWSEndpoint       string `validate:"omitempty,url"`
	RoleArn           string `validate:"omitempty,startswith=arn:"`
	S3Bucket          string
	ModelPackageGroup string `validate:"required"`
	PipelineName      string `validate:"required"`
	PipelineConfig    string
	EndpointName      string `validate:"required"`

	Port     string `validate:"required,numeric"`
	Workers  int    `validate:"gte=1"`
	Postgres PostgresConfig

	PipelinePoll PollConfig
	EndpointPoll PollConfig

	StagingRetentionDays    int           `validate:"gte=1"`
	ProductionRetentionDays int           `validate:"gtefield=StagingRetentionDays"`
	HousekeepingInterval    time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// Load reads .env when present (the process environment wins) and builds a
// validated Config.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		logger.Infof("No .env file found, using environment variables: %s", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durVar := func(key string, def time.Duration) time.Duration {
		v, err := getDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	floatVar := func(key string, def float64) float64 {
		v, err := getFloat(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		AWSRegion:         getEnv("AWS_REGION", consts.DefaultRegion),
		AWSAccessKeyID:    os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:      os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSSessionToken:   os.Getenv("AWS_SESSION_TOKEN"),
		AWSEndpoint:       os.Getenv("AWS_ENDPOINT_URL"),
		RoleArn:           os.Getenv("SAGEMAKER_ROLE_ARN"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		ModelPackageGroup: getEnv("MODEL_PACKAGE_GROUP", consts.DefaultModelPackageGroup),
		PipelineName:      getEnv("PIPELINE_NAME", consts.DefaultPipelineName),
		PipelineConfig:    getEnv("PIPELINE_CONFIG", consts.DefaultPipelineConfigPath),
		EndpointName:      getEnv("ENDPOINT_NAME", consts.DefaultEndpointName),
		Port:              getEnv("PORT", "8000"),
		Workers:           intVar("WORKFLOW_WORKERS", 4),
		Postgres: PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Database: os.Getenv("POSTGRES_DB"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
		},
		PipelinePoll: PollConfig{
			Interval:    durVar("PIPELINE_POLL_INTERVAL", 30*time.Second),
			MaxInterval: durVar("PIPELINE_POLL_MAX_INTERVAL", 2*time.Minute),
			Multiplier:  floatVar("PIPELINE_POLL_MULTIPLIER", 1.5),
			Timeout:     durVar("PIPELINE_TIMEOUT", 2*time.Hour),
		},
		EndpointPoll: PollConfig{
			Interval:    durVar("ENDPOINT_POLL_INTERVAL", 15*time.Second),
			MaxInterval: durVar("ENDPOINT_POLL_MAX_INTERVAL", time.Minute),
			Multiplier:  floatVar("ENDPOINT_POLL_MULTIPLIER", 1.5),
			Timeout:     durVar("ENDPOINT_TIMEOUT", 30*time.Minute),
		},
		StagingRetentionDays:    intVar("STAGING_RETENTION_DAYS", consts.StagingRetentionDays),
		ProductionRetentionDays: intVar("PRODUCTION_RETENTION_DAYS", consts.ProductionRetentionDays),
		HousekeepingInterval:    durVar("RUN_HOUSEKEEPING_INTERVAL", time.Hour),
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// RequirePlatform checks the settings needed by commands that mutate
// platform resources.
func (c *Config) RequirePlatform() error {
	if c.RoleArn == "" {
		return fmt.Errorf("SAGEMAKER_ROLE_ARN environment variable not set")
	}
	if c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET environment variable not set")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
