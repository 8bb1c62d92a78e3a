package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/legacybridge"
)

// ValidateStorageConfig performs basic sanity checks on object storage settings.
func ValidateStorageConfig(cfg legacybridge.StorageConfig) error {
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey == "" {
		return fmt.Errorf("storage.accessKeyId provided without storage.secretAccessKey")
	}
	if cfg.SecretAccessKey != "" && cfg.AccessKeyID == "" {
		return fmt.Errorf("storage.secretAccessKey provided without storage.accessKeyId")
	}
	return nil
}

// NewS3Client builds an S3 client from storage settings. Static credentials
// and a custom endpoint (MinIO, RustFS) are used when configured; otherwise
// the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg legacybridge.StorageConfig) (*s3.Client, error) {
	if err := ValidateStorageConfig(cfg); err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		// region required by SDK; custom endpoints ignore it
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// S3BucketHeader is the subset of the S3 API used by S3HealthCheck.
type S3BucketHeader interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3HealthCheck verifies that bucket exists and is reachable with the
// configured credentials. timeout may be 0 to use a default of 5s.
func S3HealthCheck(ctx context.Context, client S3BucketHeader, bucket string, timeout time.Duration) error {
	if bucket == "" {
		return fmt.Errorf("s3 bucket not configured")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("s3 bucket %s returned %s: %w", bucket, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("s3 health request failed: %w", err)
	}
	return nil
}
