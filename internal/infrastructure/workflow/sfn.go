package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	infraconfig "github.com/ecommerce/etl/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ensure SFNStarter implements Starter
var _ Starter = (*SFNStarter)(nil)

// startInput is the fixed input document passed to every execution.
const startInput = `{"triggered_by": "s3 upload trigger"}`

// SFNStarter starts an AWS Step Functions state machine execution.
type SFNStarter struct {
	client          *sfn.Client
	stateMachineARN string
	logger          *zap.Logger
}

// SFNStarterOption is a functional option for configuring SFNStarter
type SFNStarterOption func(*SFNStarter)

// WithSFNLogger sets a custom logger for SFNStarter
func WithSFNLogger(logger *zap.Logger) SFNStarterOption {
	return func(s *SFNStarter) {
		s.logger = logger
	}
}

// NewSFNStarter creates a starter from configuration.
func NewSFNStarter(storageCfg *infraconfig.StorageConfig, workflowCfg *infraconfig.WorkflowConfig, opts ...SFNStarterOption) (*SFNStarter, error) {
	if workflowCfg == nil || workflowCfg.StateMachineARN == "" {
		return nil, errors.New("state machine ARN is required")
	}

	region := storageCfg.Region
	if region == "" {
		region = "eu-west-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			storageCfg.AccessKey,
			storageCfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	starter := &SFNStarter{
		client:          sfn.NewFromConfig(awsCfg),
		stateMachineARN: workflowCfg.StateMachineARN,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(starter)
	}
	return starter, nil
}

// StartPipeline starts one state machine execution under a fresh name and
// returns the execution ARN as the run identifier.
func (s *SFNStarter) StartPipeline(ctx context.Context) (string, error) {
	out, err := s.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(s.stateMachineARN),
		Name:            aws.String(uuid.NewString()),
		Input:           aws.String(startInput),
	})
	if err != nil {
		return "", fmt.Errorf("failed to start pipeline execution: %w", err)
	}

	runID := aws.ToString(out.ExecutionArn)
	s.logger.Info("Pipeline execution started", zap.String("execution_arn", runID))
	return runID, nil
}
