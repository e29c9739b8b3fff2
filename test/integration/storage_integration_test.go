package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"document-hub-be/internal/pkg/logger"
	"document-hub-be/pkg/dispatch"
	"document-hub-be/pkg/ledger"
	"document-hub-be/pkg/storage"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendFromEnv connects to the bucket named by STORAGE_* variables. The
// test is skipped unless STORAGE_INTEGRATION=true, since it writes real objects.
func backendFromEnv(t *testing.T) storage.Backend {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}
	if enabled, _ := strconv.ParseBool(os.Getenv("STORAGE_INTEGRATION")); !enabled {
		t.Skip("Skipping integration test: STORAGE_INTEGRATION not set")
	}

	useSSL, err := strconv.ParseBool(os.Getenv("STORAGE_USE_SSL"))
	if err != nil {
		useSSL = true
	}
	pathStyle, _ := strconv.ParseBool(os.Getenv("STORAGE_FORCE_PATH_STYLE"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, err := storage.NewBackend(ctx, storage.Config{
		Provider:        os.Getenv("STORAGE_PROVIDER"),
		Bucket:          os.Getenv("STORAGE_BUCKET"),
		Prefix:          fmt.Sprintf("integration/%d", time.Now().UnixNano()),
		Region:          os.Getenv("STORAGE_REGION"),
		Endpoint:        os.Getenv("STORAGE_ENDPOINT"),
		AccessKeyID:     os.Getenv("STORAGE_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("STORAGE_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("STORAGE_SESSION_TOKEN"),
		UseSSL:          useSSL,
		ForcePathStyle:  pathStyle,
	})
	require.NoError(t, err)
	return storage.WithTimeout(backend, 30*time.Second)
}

func TestBackendConflictModes(t *testing.T) {
	backend := backendFromEnv(t)
	ctx := context.Background()
	content := []byte("closing disclosure")

	first, err := backend.Upload(ctx, "/Loans/1/cd.pdf", content, storage.ModeAdd)
	require.NoError(t, err)
	second, err := backend.Upload(ctx, "/Loans/1/cd.pdf", content, storage.ModeAdd)
	require.NoError(t, err)
	assert.Equal(t, "/Loans/1/cd.pdf", first)
	assert.Equal(t, "/Loans/1/cd (1).pdf", second)

	third, err := backend.Upload(ctx, "/Loans/1/cd.pdf", content, storage.ModeOverwrite)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestDispatchAgainstBackend(t *testing.T) {
	backend := backendFromEnv(t)

	item := 5
	l := ledger.New().Append(&item,
		ledger.NewAttachment("commitment.pdf", []byte("%PDF-1.4 commitment")),
		ledger.NewAttachment("conditions.txt", []byte("conditions")),
	)

	results := dispatch.New(backend, logger.NewNopLogger(), 2).
		Dispatch(context.Background(), l.AttachmentsFor(item), "/Loans/5", storage.ModeAdd)

	succeeded, failed := dispatch.Summary(results)
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 0, failed)
	for _, r := range results {
		t.Logf("%s -> %s", r.Name, r.CommittedPath)
	}
}
