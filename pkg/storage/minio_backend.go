package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioAPI is the subset of *minio.Client used here.
type MinioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

var _ MinioAPI = (*minio.Client)(nil)

// MinioBackend stores attachments in a MinIO bucket. ModeAdd probes the key
// with StatObject before writing, so two writers racing on the same free name
// can both succeed; the last one wins.
type MinioBackend struct {
	client MinioAPI
	bucket string
	prefix string
}

func NewMinioBackend(client MinioAPI, bucket, prefix string) *MinioBackend {
	return &MinioBackend{client: client, bucket: bucket, prefix: prefix}
}

func NewMinioBackendFromConfig(cfg Config) (*MinioBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return NewMinioBackend(client, cfg.Bucket, cfg.Prefix), nil
}

func (b *MinioBackend) Name() string { return "minio" }

func (b *MinioBackend) Upload(ctx context.Context, p string, content []byte, mode ConflictMode) (string, error) {
	if err := validatePath(p); err != nil {
		return "", err
	}
	contentType := mimetype.Detect(content).String()

	return commit(ctx, p, mode, func(ctx context.Context, candidate string, exclusive bool) error {
		key := objectKey(b.prefix, candidate)
		if exclusive {
			taken, err := b.exists(ctx, key)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %s/%s", ErrConflict, b.bucket, key)
			}
		}

		_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(content), int64(len(content)),
			minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			return translateMinioError(b.bucket, key, err)
		}
		return nil
	})
}

func (b *MinioBackend) exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, translateMinioError(b.bucket, key, err)
}

func translateMinioError(bucket, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "EntityTooLarge" || resp.StatusCode == http.StatusRequestEntityTooLarge {
		return fmt.Errorf("%w: %s/%s: %v", ErrPayloadTooLarge, bucket, key, err)
	}
	return fmt.Errorf("minio put %s/%s: %w", bucket, key, err)
}
