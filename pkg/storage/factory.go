package storage

import (
	"context"
	"fmt"
)

// Config selects and configures a Backend.
type Config struct {
	Provider        string // "s3", "minio" or "memory"
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	UseSSL          bool
	ForcePathStyle  bool
}

func NewBackend(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3BackendFromConfig(ctx, cfg)
	case "minio":
		return NewMinioBackendFromConfig(cfg)
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
