package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
)

// S3API is the subset of the S3 client used here, narrowed for mocking.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3Backend stores attachments as objects in one bucket. Under ModeAdd it
// relies on conditional writes (If-None-Match: *) so a concurrent writer to
// the same key is detected by S3 itself.
type S3Backend struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Backend(client S3API, bucket, prefix string) *S3Backend {
	return &S3Backend{client: client, bucket: bucket, prefix: prefix}
}

// NewS3BackendFromConfig builds a client from static credentials. Endpoint is
// optional and lets the backend target S3-compatible services.
func NewS3BackendFromConfig(ctx context.Context, cfg Config) (*S3Backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return NewS3Backend(client, cfg.Bucket, cfg.Prefix), nil
}

func (b *S3Backend) Name() string { return "s3" }

func (b *S3Backend) Upload(ctx context.Context, p string, content []byte, mode ConflictMode) (string, error) {
	if err := validatePath(p); err != nil {
		return "", err
	}
	contentType := mimetype.Detect(content).String()

	return commit(ctx, p, mode, func(ctx context.Context, candidate string, exclusive bool) error {
		key := objectKey(b.prefix, candidate)
		input := &s3.PutObjectInput{
			Bucket:        aws.String(b.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(content),
			ContentLength: aws.Int64(int64(len(content))),
			ContentType:   aws.String(contentType),
		}
		if exclusive {
			input.IfNoneMatch = aws.String("*")
		}

		if _, err := b.client.PutObject(ctx, input); err != nil {
			return translateS3Error(b.bucket, key, err)
		}
		return nil
	})
}

type httpStatusError interface {
	HTTPStatusCode() int
}

func translateS3Error(bucket, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return fmt.Errorf("%w: s3://%s/%s", ErrConflict, bucket, key)
		case "EntityTooLarge":
			return fmt.Errorf("%w: s3://%s/%s: %v", ErrPayloadTooLarge, bucket, key, err)
		}
	}

	var statusErr httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.HTTPStatusCode() {
		case http.StatusPreconditionFailed:
			return fmt.Errorf("%w: s3://%s/%s", ErrConflict, bucket, key)
		case http.StatusRequestEntityTooLarge:
			return fmt.Errorf("%w: s3://%s/%s: %v", ErrPayloadTooLarge, bucket, key, err)
		}
	}

	return fmt.Errorf("s3 put s3://%s/%s: %w", bucket, key, err)
}
