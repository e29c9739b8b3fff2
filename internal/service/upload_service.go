package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"document-hub-be/internal/dto"
	"document-hub-be/internal/pkg/apperror"
	"document-hub-be/internal/pkg/logger"
	"document-hub-be/pkg/dispatch"
	"document-hub-be/pkg/ledger"
	"document-hub-be/pkg/storage"
)

type IUploadService interface {
	Upload(ctx context.Context, req *dto.DirectUploadRequest) (*dto.DirectUploadResponse, error)
}

type uploadService struct {
	dispatcher   *dispatch.Dispatcher
	publisher    IPublisherService
	maxFileBytes int64
	defaultMode  storage.ConflictMode
	logger       logger.ILogger
}

func NewUploadService(
	dispatcher *dispatch.Dispatcher,
	publisher IPublisherService,
	maxFileBytes int64,
	defaultMode storage.ConflictMode,
	log logger.ILogger,
) IUploadService {
	if !defaultMode.Valid() {
		defaultMode = storage.ModeAdd
	}
	return &uploadService{
		dispatcher:   dispatcher,
		publisher:    publisher,
		maxFileBytes: maxFileBytes,
		defaultMode:  defaultMode,
		logger:       log,
	}
}

func (s *uploadService) Upload(ctx context.Context, req *dto.DirectUploadRequest) (*dto.DirectUploadResponse, error) {
	const op = "UploadService.Upload"

	if strings.TrimSpace(req.FileName) == "" || req.FileContent == "" || strings.TrimSpace(req.DestinationPath) == "" {
		return nil, apperror.Validation(op, "Missing required fields")
	}

	content, err := base64.StdEncoding.DecodeString(req.FileContent)
	if err != nil {
		return nil, apperror.Validation(op, "file_content is not valid base64")
	}
	if int64(len(content)) > s.maxFileBytes {
		return nil, apperror.PayloadTooLarge(op, fmt.Sprintf(
			"%s exceeds the %d byte limit", req.FileName, s.maxFileBytes))
	}

	mode := s.defaultMode
	if strings.TrimSpace(req.ConflictMode) != "" {
		if mode, err = storage.ParseConflictMode(req.ConflictMode); err != nil {
			return nil, apperror.Validation(op, err.Error())
		}
	}

	att := ledger.NewAttachment(req.FileName, content)
	result := s.dispatcher.Dispatch(ctx, []ledger.Attachment{att}, req.DestinationPath, mode)[0]

	if s.publisher != nil {
		if payload, err := json.Marshal(dto.UploadResultMessage{
			DestinationRoot: req.DestinationPath,
			ConflictMode:    string(mode),
			Result:          result,
			OccurredAt:      time.Now(),
		}); err == nil {
			if err := s.publisher.Publish(ctx, payload); err != nil {
				s.logger.Warn("UploadService", "Failed to publish upload result", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	if !result.Succeeded() {
		return nil, &apperror.Error{Kind: result.ErrorKind, Op: op, Message: "Upload failed: " + result.Reason}
	}

	return &dto.DirectUploadResponse{
		Result:      result,
		SizeBytes:   att.SizeBytes,
		ContentType: att.ContentType,
	}, nil
}
