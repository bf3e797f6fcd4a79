// Package awsutil constructs the AWS service clients from the service
// configuration and names the external resources the service depends on.
package awsutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"wayfarer/pkg/config"
)

// Clients bundles the AWS service clients and the resource names the rest of
// the service talks to.
type Clients struct {
	SQS      *sqs.Client
	DynamoDB *dynamodb.Client
	S3       *s3.Client

	Tables TableNames
	Queues QueueNames
}

// TableNames are the DynamoDB tables the service persists to.
type TableNames struct {
	Trips     string
	Accounts  string
	Locations string
}

// QueueNames are the SQS queues the service consumes and produces.
type QueueNames struct {
	PendingRoutes string
}

// New builds the shared AWS configuration and the service clients. A
// non-empty endpoint (localstack, minio) overrides every client's base
// endpoint; static credentials from the config take precedence over the
// default chain.
func New(ctx context.Context, cfg config.AWSConfig) (*Clients, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.LogLevel != "" {
		if mode, err := parseClientLog(cfg.LogLevel); err != nil {
			return nil, err
		} else if mode != 0 {
			opts = append(opts, awsconfig.WithClientLogMode(mode))
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}

	clients := &Clients{
		SQS: sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		}),
		DynamoDB: dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		}),
		S3: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		}),
		Tables: TableNames{
			Trips:     cfg.Tables.Trips,
			Accounts:  cfg.Tables.Accounts,
			Locations: cfg.Tables.Locations,
		},
		Queues: QueueNames{
			PendingRoutes: cfg.Queues.PendingRoutes,
		},
	}

	slog.Debug("aws clients ready",
		"region", cfg.Region, "endpoint", cfg.Endpoint,
		"queue", clients.Queues.PendingRoutes)
	return clients, nil
}

func parseClientLog(level string) (aws.ClientLogMode, error) {
	switch level {
	case "", "off", "none":
		return 0, nil
	case "request":
		return aws.LogRequest, nil
	case "request_body":
		return aws.LogRequestWithBody, nil
	case "response":
		return aws.LogResponse, nil
	case "response_body":
		return aws.LogResponseWithBody, nil
	case "retries":
		return aws.LogRetries, nil
	default:
		return 0, fmt.Errorf("unknown aws log level %q", level)
	}
}
