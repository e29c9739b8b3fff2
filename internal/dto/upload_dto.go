package dto

import (
	"time"

	"document-hub-be/pkg/dispatch"

	"github.com/google/uuid"
)

// DirectUploadRequest pushes one base64 encoded file without going through a
// checklist workspace.
type DirectUploadRequest struct {
	FileName        string `json:"file_name" validate:"required"`
	FileContent     string `json:"file_content" validate:"required,base64"`
	DestinationPath string `json:"destination_path" validate:"required"`
	ConflictMode    string `json:"conflict_mode"`
}

type DirectUploadResponse struct {
	Result      dispatch.Result `json:"result"`
	SizeBytes   int64           `json:"size_bytes"`
	ContentType string          `json:"content_type"`
}

// UploadResultMessage is published on the upload results topic once per
// attachment.
type UploadResultMessage struct {
	SessionId       uuid.UUID       `json:"session_id"`
	ItemId          int             `json:"item_id"`
	DestinationRoot string          `json:"destination_root"`
	ConflictMode    string          `json:"conflict_mode"`
	Result          dispatch.Result `json:"result"`
	OccurredAt      time.Time       `json:"occurred_at"`
}
