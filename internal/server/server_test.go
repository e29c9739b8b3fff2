package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"document-hub-be/internal/bootstrap"
	"document-hub-be/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			LogFilePath:        filepath.Join(dir, "app.log"),
			StreamLogFilePath:  filepath.Join(dir, "stream.log"),
			CorsAllowedOrigins: "http://localhost:3001",
		},
		Storage: config.StorageConfig{
			Provider:            "memory",
			Timeout:             5 * time.Second,
			DefaultConflictMode: "add",
		},
		Upload: config.UploadConfig{MaxFileBytes: 1024, BodyLimitBytes: 4096, Concurrency: 2},
		Auth:   config.AuthConfig{JWTSecret: "server-secret", SessionTTL: time.Hour},
		Events: config.EventsConfig{UploadResultTopic: "upload.results"},
	}
}

func TestServerRoutes(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())

	container, err := bootstrap.NewContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(container.Close)
	require.NoError(t, container.ConsumerService.Consume(context.Background()))

	app := New(cfg, container).GetApp()

	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"catalog", "GET", "/api/checklist/v1/items", fiber.StatusOK},
		{"session", "POST", "/api/workspace/v1/session", fiber.StatusCreated},
		{"protected workspace", "GET", "/api/workspace/v1", fiber.StatusUnauthorized},
		{"websocket without token", "GET", "/api/workspace/v1/ws", fiber.StatusUnauthorized},
		{"unknown route", "GET", "/api/nope", fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := app.Test(httptest.NewRequest(tt.method, tt.target, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body), "every response is JSON")
			assert.Contains(t, body, "success")
		})
	}
}

func TestNewContainerRejectsBadCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := bootstrap.NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}
