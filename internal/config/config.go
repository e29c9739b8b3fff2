package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"document-hub-be/internal/pkg/apperror"
	"document-hub-be/pkg/storage"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Upload  UploadConfig
	Auth    AuthConfig
	Events  EventsConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	StreamLogFilePath  string
	CorsAllowedOrigins string
	CatalogPath        string // empty uses the embedded catalog
}

type StorageConfig struct {
	Provider            string // "s3", "minio" or "memory"
	Bucket              string
	Prefix              string
	Region              string
	Endpoint            string
	AccessKeyID         string
	SecretAccessKey     string
	SessionToken        string
	UseSSL              bool
	ForcePathStyle      bool
	Timeout             time.Duration
	DefaultConflictMode string
}

type UploadConfig struct {
	MaxFileBytes   int64
	BodyLimitBytes int
	Concurrency    int
}

type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

type EventsConfig struct {
	NatsURL           string // empty disables NATS
	UploadResultTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			StreamLogFilePath:  getEnv("STREAM_LOG_FILE_PATH", "logs/upload_stream.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			CatalogPath:        getEnv("CHECKLIST_CATALOG_PATH", ""),
		},
		Storage: StorageConfig{
			Provider:            getEnv("STORAGE_PROVIDER", "s3"),
			Bucket:              getEnv("STORAGE_BUCKET", ""),
			Prefix:              getEnv("STORAGE_PREFIX", ""),
			Region:              getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:            getEnv("STORAGE_ENDPOINT", ""),
			AccessKeyID:         getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey:     getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			SessionToken:        getEnv("STORAGE_SESSION_TOKEN", ""),
			UseSSL:              getEnvAsBool("STORAGE_USE_SSL", true),
			ForcePathStyle:      getEnvAsBool("STORAGE_FORCE_PATH_STYLE", false),
			Timeout:             getEnvAsDuration("STORAGE_TIMEOUT", 60*time.Second),
			DefaultConflictMode: getEnv("STORAGE_CONFLICT_MODE", string(storage.ModeAdd)),
		},
		Upload: UploadConfig{
			MaxFileBytes:   int64(getEnvAsInt("UPLOAD_MAX_FILE_BYTES", 10*1024*1024)),
			BodyLimitBytes: getEnvAsInt("UPLOAD_BODY_LIMIT_BYTES", 50*1024*1024),
			Concurrency:    getEnvAsInt("UPLOAD_CONCURRENCY", 4),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			SessionTTL: getEnvAsDuration("SESSION_TTL", 8*time.Hour),
		},
		Events: EventsConfig{
			NatsURL:           getEnv("NATS_URL", ""),
			UploadResultTopic: getEnv("UPLOAD_RESULT_TOPIC", "upload.results"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

// Validate reports every problem that must stop the process from starting.
func (c *Config) Validate() error {
	var problems []error

	switch c.Storage.Provider {
	case "s3", "minio":
		if c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
			problems = append(problems, errors.New(
				"STORAGE_ACCESS_KEY_ID and STORAGE_SECRET_ACCESS_KEY are required"))
		}
		if c.Storage.Bucket == "" {
			problems = append(problems, errors.New("STORAGE_BUCKET is required"))
		}
		if c.Storage.Provider == "minio" && c.Storage.Endpoint == "" {
			problems = append(problems, errors.New("STORAGE_ENDPOINT is required for minio"))
		}
	case "memory":
	default:
		problems = append(problems, fmt.Errorf("unsupported STORAGE_PROVIDER %q", c.Storage.Provider))
	}

	if _, err := storage.ParseConflictMode(c.Storage.DefaultConflictMode); err != nil {
		problems = append(problems, fmt.Errorf("STORAGE_CONFLICT_MODE: %w", err))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		problems = append(problems, errors.New("JWT_SECRET is required"))
	}
	if c.Upload.MaxFileBytes <= 0 {
		problems = append(problems, errors.New("UPLOAD_MAX_FILE_BYTES must be positive"))
	}
	if c.Upload.Concurrency <= 0 {
		problems = append(problems, errors.New("UPLOAD_CONCURRENCY must be positive"))
	}

	if len(problems) == 0 {
		return nil
	}
	return &apperror.Error{
		Kind:    apperror.KindConfiguration,
		Op:      "config.Validate",
		Message: "invalid configuration",
		Err:     errors.Join(problems...),
	}
}

// StorageBackendConfig converts the storage section for the backend factory.
func (c *Config) StorageBackendConfig() storage.Config {
	return storage.Config{
		Provider:        c.Storage.Provider,
		Bucket:          c.Storage.Bucket,
		Prefix:          c.Storage.Prefix,
		Region:          c.Storage.Region,
		Endpoint:        c.Storage.Endpoint,
		AccessKeyID:     c.Storage.AccessKeyID,
		SecretAccessKey: c.Storage.SecretAccessKey,
		SessionToken:    c.Storage.SessionToken,
		UseSSL:          c.Storage.UseSSL,
		ForcePathStyle:  c.Storage.ForcePathStyle,
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
