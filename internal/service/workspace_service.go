package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"document-hub-be/internal/dto"
	"document-hub-be/internal/mapper"
	"document-hub-be/internal/pkg/apperror"
	"document-hub-be/internal/pkg/logger"
	"document-hub-be/internal/pkg/serverutils"
	"document-hub-be/internal/repository/memory"
	"document-hub-be/internal/workspace"
	"document-hub-be/pkg/checklist"
	"document-hub-be/pkg/dispatch"
	"document-hub-be/pkg/ledger"
	"document-hub-be/pkg/storage"

	"github.com/google/uuid"
)

// IncomingFile is one file received on intake, already read into memory.
type IncomingFile struct {
	Name    string
	Content []byte
}

// WorkspaceOptions carries the policy knobs of the workspace service.
type WorkspaceOptions struct {
	JWTSecret    string
	SessionTTL   time.Duration
	MaxFileBytes int64
	DefaultMode  storage.ConflictMode
}

type IWorkspaceService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	RefreshSession(ctx context.Context, sessionId uuid.UUID) (*dto.CreateSessionResponse, error)
	EndSession(ctx context.Context, sessionId uuid.UUID) error
	GetCatalog(ctx context.Context) ([]dto.ChecklistItemResponse, error)
	Show(ctx context.Context, sessionId uuid.UUID) (*dto.WorkspaceResponse, error)
	Search(ctx context.Context, sessionId uuid.UUID, req *dto.SearchRequest) (*dto.SearchResponse, error)
	Select(ctx context.Context, sessionId uuid.UUID, req *dto.SelectItemRequest) (*dto.SelectItemResponse, error)
	AddFiles(ctx context.Context, sessionId uuid.UUID, files []IncomingFile) (*dto.AddFilesResponse, error)
	SetRemark(ctx context.Context, sessionId uuid.UUID, req *dto.SetRemarkRequest) (*dto.ItemDetailResponse, error)
	ShowItem(ctx context.Context, sessionId uuid.UUID, itemId int) (*dto.ItemDetailResponse, error)
	UploadAll(ctx context.Context, sessionId uuid.UUID, req *dto.UploadItemRequest) (*dto.UploadBatchResponse, error)
}

type workspaceService struct {
	catalog    *checklist.Catalog
	sessions   *memory.SessionRepository
	dispatcher *dispatch.Dispatcher
	publisher  IPublisherService
	mapper     *mapper.WorkspaceMapper
	opts       WorkspaceOptions
	logger     logger.ILogger
}

func NewWorkspaceService(
	catalog *checklist.Catalog,
	sessions *memory.SessionRepository,
	dispatcher *dispatch.Dispatcher,
	publisher IPublisherService,
	opts WorkspaceOptions,
	log logger.ILogger,
) IWorkspaceService {
	if !opts.DefaultMode.Valid() {
		opts.DefaultMode = storage.ModeAdd
	}
	return &workspaceService{
		catalog:    catalog,
		sessions:   sessions,
		dispatcher: dispatcher,
		publisher:  publisher,
		mapper:     mapper.NewWorkspaceMapper(),
		opts:       opts,
		logger:     log,
	}
}

func (s *workspaceService) session(op string, sessionId uuid.UUID) (*workspace.Session, error) {
	sess, ok := s.sessions.Get(sessionId.String())
	if !ok {
		return nil, apperror.NotFound(op, "Workspace session not found or expired")
	}
	return sess, nil
}

func (s *workspaceService) item(op string, itemId int) (checklist.Item, error) {
	item, ok := s.catalog.Get(itemId)
	if !ok {
		return checklist.Item{}, apperror.Validation(op, fmt.Sprintf("Checklist item %d does not exist", itemId))
	}
	return item, nil
}

func (s *workspaceService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	sess := workspace.NewSession()

	token, expiresAt, err := serverutils.IssueSessionToken(s.opts.JWTSecret, sess.ID, s.opts.SessionTTL)
	if err != nil {
		return nil, err
	}
	s.sessions.Save(sess)

	s.logger.Info("WorkspaceService", "Session created", map[string]interface{}{
		"session_id":      sess.ID.String(),
		"active_sessions": s.sessions.Count(),
	})

	return &dto.CreateSessionResponse{
		SessionId: sess.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// RefreshSession issues a new token for a live session. The store slides its
// expiry on every access, so an active workspace outlives its first token.
func (s *workspaceService) RefreshSession(ctx context.Context, sessionId uuid.UUID) (*dto.CreateSessionResponse, error) {
	sess, err := s.session("WorkspaceService.RefreshSession", sessionId)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := serverutils.IssueSessionToken(s.opts.JWTSecret, sess.ID, s.opts.SessionTTL)
	if err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		SessionId: sess.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *workspaceService) EndSession(ctx context.Context, sessionId uuid.UUID) error {
	if _, err := s.session("WorkspaceService.EndSession", sessionId); err != nil {
		return err
	}
	s.sessions.Delete(sessionId.String())

	s.logger.Info("WorkspaceService", "Session ended", map[string]interface{}{
		"session_id":      sessionId.String(),
		"active_sessions": s.sessions.Count(),
	})
	return nil
}

func (s *workspaceService) GetCatalog(ctx context.Context) ([]dto.ChecklistItemResponse, error) {
	return s.mapper.ToItemResponses(s.catalog.List()), nil
}

func (s *workspaceService) Show(ctx context.Context, sessionId uuid.UUID) (*dto.WorkspaceResponse, error) {
	sess, err := s.session("WorkspaceService.Show", sessionId)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToWorkspaceResponse(sess.ID, sess.Snapshot(), s.catalog), nil
}

func (s *workspaceService) Search(ctx context.Context, sessionId uuid.UUID, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	sess, err := s.session("WorkspaceService.Search", sessionId)
	if err != nil {
		return nil, err
	}

	state := sess.Apply(workspace.SearchChanged{Query: req.Query})

	return &dto.SearchResponse{
		Query: state.Query,
		Items: s.mapper.ToItemResponses(state.Visible(s.catalog)),
	}, nil
}

func (s *workspaceService) Select(ctx context.Context, sessionId uuid.UUID, req *dto.SelectItemRequest) (*dto.SelectItemResponse, error) {
	const op = "WorkspaceService.Select"

	sess, err := s.session(op, sessionId)
	if err != nil {
		return nil, err
	}
	item, err := s.item(op, req.ItemId)
	if err != nil {
		return nil, err
	}

	state := sess.Apply(workspace.ItemSelected{ItemID: item.ID})

	visible := false
	for _, v := range state.Visible(s.catalog) {
		if v.ID == item.ID {
			visible = true
			break
		}
	}

	return &dto.SelectItemResponse{
		SelectedItemId: item.ID,
		Item:           s.mapper.ToItemResponse(item),
		Visible:        visible,
	}, nil
}

func (s *workspaceService) AddFiles(ctx context.Context, sessionId uuid.UUID, files []IncomingFile) (*dto.AddFilesResponse, error) {
	const op = "WorkspaceService.AddFiles"

	sess, err := s.session(op, sessionId)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperror.Validation(op, "No files provided")
	}
	if _, ok := sess.Snapshot().Current(); !ok {
		return nil, apperror.Validation(op, "Select a checklist item before adding files")
	}

	// The batch is accepted or rejected as a whole.
	attachments := make([]ledger.Attachment, 0, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, apperror.Validation(op, "File name is required")
		}
		if int64(len(f.Content)) > s.opts.MaxFileBytes {
			return nil, apperror.PayloadTooLarge(op, fmt.Sprintf(
				"%s exceeds the %d byte limit", f.Name, s.opts.MaxFileBytes))
		}
		attachments = append(attachments, ledger.NewAttachment(f.Name, f.Content))
	}

	state := sess.Apply(workspace.FilesAdded{Files: attachments})
	itemId, _ := state.Current()

	s.logger.Info("WorkspaceService", "Files added", map[string]interface{}{
		"session_id": sessionId.String(),
		"item_id":    itemId,
		"count":      len(attachments),
	})

	return &dto.AddFilesResponse{
		ItemId:           itemId,
		Added:            s.mapper.ToAttachmentResponses(attachments),
		TotalAttachments: len(state.Ledger.AttachmentsFor(itemId)),
	}, nil
}

func (s *workspaceService) SetRemark(ctx context.Context, sessionId uuid.UUID, req *dto.SetRemarkRequest) (*dto.ItemDetailResponse, error) {
	const op = "WorkspaceService.SetRemark"

	sess, err := s.session(op, sessionId)
	if err != nil {
		return nil, err
	}
	item, err := s.item(op, req.ItemId)
	if err != nil {
		return nil, err
	}

	state := sess.Apply(workspace.RemarkChanged{ItemID: item.ID, Text: req.Text})
	res := s.mapper.ToItemDetail(state, item)
	return &res, nil
}

func (s *workspaceService) ShowItem(ctx context.Context, sessionId uuid.UUID, itemId int) (*dto.ItemDetailResponse, error) {
	const op = "WorkspaceService.ShowItem"

	sess, err := s.session(op, sessionId)
	if err != nil {
		return nil, err
	}
	item, ok := s.catalog.Get(itemId)
	if !ok {
		return nil, apperror.NotFound(op, fmt.Sprintf("Checklist item %d does not exist", itemId))
	}

	res := s.mapper.ToItemDetail(sess.Snapshot(), item)
	return &res, nil
}

func (s *workspaceService) UploadAll(ctx context.Context, sessionId uuid.UUID, req *dto.UploadItemRequest) (*dto.UploadBatchResponse, error) {
	const op = "WorkspaceService.UploadAll"

	sess, err := s.session(op, sessionId)
	if err != nil {
		return nil, err
	}
	item, err := s.item(op, req.ItemId)
	if err != nil {
		return nil, err
	}
	root := strings.TrimSpace(req.DestinationRoot)
	if root == "" {
		return nil, apperror.Validation(op, "destination_root is required")
	}
	mode, err := s.conflictMode(op, req.ConflictMode)
	if err != nil {
		return nil, err
	}

	// Snapshot, then release the session while the uploads run.
	attachments := sess.Snapshot().Ledger.AttachmentsFor(item.ID)
	results := s.dispatcher.Dispatch(ctx, attachments, root, mode)
	succeeded, failed := dispatch.Summary(results)

	s.logger.Info("WorkspaceService", "Upload batch finished", map[string]interface{}{
		"session_id": sessionId.String(),
		"item_id":    item.ID,
		"root":       root,
		"mode":       string(mode),
		"succeeded":  succeeded,
		"failed":     failed,
	})

	s.publishResults(ctx, sessionId, item.ID, root, mode, results)

	return &dto.UploadBatchResponse{
		ItemId:          item.ID,
		DestinationRoot: root,
		ConflictMode:    string(mode),
		Succeeded:       succeeded,
		Failed:          failed,
		Results:         results,
	}, nil
}

func (s *workspaceService) conflictMode(op, raw string) (storage.ConflictMode, error) {
	if strings.TrimSpace(raw) == "" {
		return s.opts.DefaultMode, nil
	}
	mode, err := storage.ParseConflictMode(raw)
	if err != nil {
		return "", apperror.Validation(op, err.Error())
	}
	return mode, nil
}

func (s *workspaceService) publishResults(
	ctx context.Context,
	sessionId uuid.UUID,
	itemId int,
	root string,
	mode storage.ConflictMode,
	results []dispatch.Result,
) {
	if s.publisher == nil {
		return
	}
	for _, r := range results {
		payload, err := json.Marshal(dto.UploadResultMessage{
			SessionId:       sessionId,
			ItemId:          itemId,
			DestinationRoot: root,
			ConflictMode:    string(mode),
			Result:          r,
			OccurredAt:      time.Now(),
		})
		if err != nil {
			continue
		}
		if err := s.publisher.Publish(ctx, payload); err != nil {
			s.logger.Warn("WorkspaceService", "Failed to publish upload result", map[string]interface{}{
				"attachment_id": r.AttachmentID.String(),
				"error":         err.Error(),
			})
		}
	}
}
