// Package s3 archives generated compliance reports for long-term retention.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appConfig "github.com/banking/aml-compliance/internal/config"
	"github.com/banking/aml-compliance/internal/domain"
)

type ReportArchive struct {
	client *s3.Client
	bucket string
}

// NewReportArchive creates the archive client. A non-empty endpoint routes
// requests to MinIO or Localstack instead of AWS.
func NewReportArchive(ctx context.Context, cfg appConfig.S3Config) (*ReportArchive, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithEndpointResolverWithOptions(customResolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true // required for MinIO
	})

	return &ReportArchive{
		client: client,
		bucket: cfg.ReportsBucket,
	}, nil
}

// StoreReport uploads the report as JSON and returns its object key. Keys are
// laid out year/month so retention policies can expire whole prefixes.
func (r *ReportArchive) StoreReport(ctx context.Context, report *domain.ComplianceReport) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	generated := report.Period.GeneratedAt
	key := fmt.Sprintf("reports/%d/%02d/aml-compliance-%s.json",
		generated.Year(), generated.Month(), generated.Format("20060102T150405Z"))

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to s3: %w", err)
	}

	return key, nil
}
