package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"document-hub-be/internal/dto"
	"document-hub-be/internal/pkg/apperror"
	"document-hub-be/internal/pkg/logger"
	"document-hub-be/internal/pkg/serverutils"
	"document-hub-be/internal/repository/memory"
	"document-hub-be/pkg/checklist"
	"document-hub-be/pkg/dispatch"
	"document-hub-be/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "workspace-secret"

type capturePublisher struct {
	mu       sync.Mutex
	messages []dto.UploadResultMessage
}

func (p *capturePublisher) Publish(_ context.Context, payload []byte) error {
	var msg dto.UploadResultMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	return nil
}

type failingBackend struct {
	storage.Backend
	failPath string
}

func (f failingBackend) Upload(ctx context.Context, p string, content []byte, mode storage.ConflictMode) (string, error) {
	if p == f.failPath {
		return "", errors.New("dropbox: too_many_write_operations")
	}
	return f.Backend.Upload(ctx, p, content, mode)
}

type fixture struct {
	svc       IWorkspaceService
	backend   *storage.MemoryBackend
	publisher *capturePublisher
	sessionID uuid.UUID
}

func newFixture(t *testing.T, wrap func(storage.Backend) storage.Backend) fixture {
	t.Helper()
	catalog, err := checklist.Default()
	require.NoError(t, err)

	mem := storage.NewMemoryBackend()
	var backend storage.Backend = mem
	if wrap != nil {
		backend = wrap(mem)
	}
	log := logger.NewNopLogger()
	pub := &capturePublisher{}

	svc := NewWorkspaceService(
		catalog,
		memory.NewSessionRepository(time.Hour),
		dispatch.New(backend, log, 2),
		pub,
		WorkspaceOptions{JWTSecret: testSecret, SessionTTL: time.Hour, MaxFileBytes: 64, DefaultMode: storage.ModeAdd},
		log,
	)

	res, err := svc.CreateSession(context.Background())
	require.NoError(t, err)
	return fixture{svc: svc, backend: mem, publisher: pub, sessionID: res.SessionId}
}

func TestCreateSessionIssuesToken(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.svc.CreateSession(context.Background())
	require.NoError(t, err)

	id, err := serverutils.ParseSessionToken(testSecret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.SessionId, id)
	assert.NotEqual(t, f.sessionID, res.SessionId)
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Show(context.Background(), uuid.New())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestRefreshKeepsActiveSessionReachable(t *testing.T) {
	catalog, err := checklist.Default()
	require.NoError(t, err)
	log := logger.NewNopLogger()
	ttl := 3 * time.Second
	svc := NewWorkspaceService(
		catalog,
		memory.NewSessionRepository(ttl),
		dispatch.New(storage.NewMemoryBackend(), log, 1),
		nil,
		WorkspaceOptions{JWTSecret: testSecret, SessionTTL: ttl, MaxFileBytes: 64, DefaultMode: storage.ModeAdd},
		log,
	)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)
	_, err = svc.Search(ctx, created.SessionId, &dto.SearchRequest{Query: "budget"})
	require.NoError(t, err)
	refreshed, err := svc.RefreshSession(ctx, created.SessionId)
	require.NoError(t, err)
	assert.Equal(t, created.SessionId, refreshed.SessionId)
	assert.True(t, refreshed.ExpiresAt.After(created.ExpiresAt))

	time.Sleep(1700 * time.Millisecond)
	_, err = serverutils.ParseSessionToken(testSecret, created.Token)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized), "first token has expired")

	id, err := serverutils.ParseSessionToken(testSecret, refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, created.SessionId, id)

	state, err := svc.Show(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "budget", state.Query)
}

func TestEndSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.EndSession(ctx, f.sessionID))

	_, err := f.svc.Show(ctx, f.sessionID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = f.svc.RefreshSession(ctx, f.sessionID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.True(t, apperror.Is(f.svc.EndSession(ctx, f.sessionID), apperror.KindNotFound))
}

func TestAddFilesRequiresSelection(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.AddFiles(ctx, f.sessionID, []IncomingFile{{Name: "a.pdf", Content: []byte("a")}})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	view, err := f.svc.Show(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.TotalAttachments, "rejected intake leaves the ledger untouched")
	assert.Nil(t, view.SelectedItemId)
}

func TestSelectRejectsUnknownItem(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Select(context.Background(), f.sessionID, &dto.SelectItemRequest{ItemId: 7})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestSearchThenSelectHiddenItem(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	found, err := f.svc.Search(ctx, f.sessionID, &dto.SearchRequest{Query: "budget"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "8 - Budget", found.Items[0].Title)

	sel, err := f.svc.Select(ctx, f.sessionID, &dto.SelectItemRequest{ItemId: 17})
	require.NoError(t, err)
	assert.False(t, sel.Visible)

	added, err := f.svc.AddFiles(ctx, f.sessionID, []IncomingFile{{Name: "loan-docs.pdf", Content: []byte("x")}})
	require.NoError(t, err)
	assert.Equal(t, 17, added.ItemId)

	view, err := f.svc.Show(ctx, f.sessionID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1, "view lists only visible items")
	assert.Equal(t, 8, view.Items[0].Item.Id)
	assert.Equal(t, 1, view.TotalAttachments)
}

func TestAddFilesSizePolicy(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Select(ctx, f.sessionID, &dto.SelectItemRequest{ItemId: 11})
	require.NoError(t, err)

	_, err = f.svc.AddFiles(ctx, f.sessionID, []IncomingFile{
		{Name: "front.jpg", Content: []byte("ok")},
		{Name: "huge.zip", Content: make([]byte, 65)},
	})
	assert.True(t, apperror.Is(err, apperror.KindPayloadTooLarge))

	item, err := f.svc.ShowItem(ctx, f.sessionID, 11)
	require.NoError(t, err)
	assert.Empty(t, item.Attachments, "an oversized file rejects the whole batch")
	assert.True(t, item.Selected)
}

func TestRemarkAndItemDetail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.SetRemark(ctx, f.sessionID, &dto.SetRemarkRequest{ItemId: 14, Text: "waiting on lender"})
	require.NoError(t, err)
	assert.Equal(t, "waiting on lender", res.Remark)

	item, err := f.svc.ShowItem(ctx, f.sessionID, 14)
	require.NoError(t, err)
	assert.Equal(t, "waiting on lender", item.Remark)
	assert.NotNil(t, item.Attachments)
	assert.Empty(t, item.Attachments)

	_, err = f.svc.ShowItem(ctx, f.sessionID, 999)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUploadAllPartialFailure(t *testing.T) {
	f := newFixture(t, func(b storage.Backend) storage.Backend {
		return failingBackend{Backend: b, failPath: "/Loans/42/b.pdf"}
	})
	ctx := context.Background()

	_, err := f.svc.Select(ctx, f.sessionID, &dto.SelectItemRequest{ItemId: 8})
	require.NoError(t, err)
	_, err = f.svc.AddFiles(ctx, f.sessionID, []IncomingFile{
		{Name: "a.pdf", Content: []byte("a")},
		{Name: "b.pdf", Content: []byte("b")},
		{Name: "c.pdf", Content: []byte("c")},
	})
	require.NoError(t, err)

	res, err := f.svc.UploadAll(ctx, f.sessionID, &dto.UploadItemRequest{ItemId: 8, DestinationRoot: "/Loans/42/"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "add", res.ConflictMode)
	require.Len(t, res.Results, 3)
	assert.Equal(t, apperror.KindBackend, res.Results[1].ErrorKind)

	_, ok := f.backend.Get("/Loans/42/a.pdf")
	assert.True(t, ok)

	item, err := f.svc.ShowItem(ctx, f.sessionID, 8)
	require.NoError(t, err)
	assert.Len(t, item.Attachments, 3, "upload does not consume attachments")

	assert.Len(t, f.publisher.messages, 3)
	for _, msg := range f.publisher.messages {
		assert.Equal(t, f.sessionID, msg.SessionId)
		assert.Equal(t, 8, msg.ItemId)
	}
}

func TestUploadAllValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.UploadItemRequest
	}{
		{"blank root", dto.UploadItemRequest{ItemId: 8, DestinationRoot: "  "}},
		{"bad mode", dto.UploadItemRequest{ItemId: 8, DestinationRoot: "/r", ConflictMode: "merge"}},
		{"unknown item", dto.UploadItemRequest{ItemId: 7, DestinationRoot: "/r"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UploadAll(ctx, f.sessionID, &tt.req)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
		})
	}
	assert.Empty(t, f.backend.Paths())
}

func TestUploadAllWithoutAttachments(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.svc.UploadAll(context.Background(), f.sessionID, &dto.UploadItemRequest{ItemId: 1, DestinationRoot: "/r"})
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, 0, res.Succeeded)
}

func TestUploadTwiceConflictModes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Select(ctx, f.sessionID, &dto.SelectItemRequest{ItemId: 9})
	require.NoError(t, err)
	_, err = f.svc.AddFiles(ctx, f.sessionID, []IncomingFile{{Name: "hoi.pdf", Content: []byte("policy")}})
	require.NoError(t, err)

	req := &dto.UploadItemRequest{ItemId: 9, DestinationRoot: "/closing"}
	first, err := f.svc.UploadAll(ctx, f.sessionID, req)
	require.NoError(t, err)
	second, err := f.svc.UploadAll(ctx, f.sessionID, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Results[0].CommittedPath, second.Results[0].CommittedPath)

	req.ConflictMode = " OVERWRITE"
	third, err := f.svc.UploadAll(ctx, f.sessionID, req)
	require.NoError(t, err)
	assert.Equal(t, "overwrite", third.ConflictMode)
	fourth, err := f.svc.UploadAll(ctx, f.sessionID, req)
	require.NoError(t, err)
	assert.Equal(t, "/closing/hoi.pdf", third.Results[0].CommittedPath)
	assert.Equal(t, third.Results[0].CommittedPath, fourth.Results[0].CommittedPath)
}

func TestDirectUpload(t *testing.T) {
	backend := storage.NewMemoryBackend()
	log := logger.NewNopLogger()
	pub := &capturePublisher{}
	svc := NewUploadService(dispatch.New(backend, log, 1), pub, 16, storage.ModeAdd, log)
	ctx := context.Background()

	res, err := svc.Upload(ctx, &dto.DirectUploadRequest{
		FileName:        "note.txt",
		FileContent:     base64.StdEncoding.EncodeToString([]byte("hello")),
		DestinationPath: "/Loans/7",
	})
	require.NoError(t, err)
	assert.Equal(t, "/Loans/7/note.txt", res.Result.CommittedPath)
	assert.Equal(t, int64(5), res.SizeBytes)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, uuid.Nil, pub.messages[0].SessionId)

	_, err = svc.Upload(ctx, &dto.DirectUploadRequest{FileName: "x", DestinationPath: "/r"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Upload(ctx, &dto.DirectUploadRequest{
		FileName:        "big.bin",
		FileContent:     base64.StdEncoding.EncodeToString(make([]byte, 17)),
		DestinationPath: "/r",
	})
	assert.True(t, apperror.Is(err, apperror.KindPayloadTooLarge))
}

func TestDirectUploadBackendFailure(t *testing.T) {
	backend := storage.NewMemoryBackend().WithMaxObjectBytes(2)
	log := logger.NewNopLogger()
	svc := NewUploadService(dispatch.New(backend, log, 1), nil, 1024, storage.ModeOverwrite, log)

	_, err := svc.Upload(context.Background(), &dto.DirectUploadRequest{
		FileName:        "scan.pdf",
		FileContent:     base64.StdEncoding.EncodeToString([]byte("four")),
		DestinationPath: "/r",
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindPayloadTooLarge))
}
