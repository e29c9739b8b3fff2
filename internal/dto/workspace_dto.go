package dto

import (
	"time"

	"document-hub-be/pkg/dispatch"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChecklistItemResponse struct {
	Id    int    `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Title string `json:"title"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Query string                  `json:"query"`
	Items []ChecklistItemResponse `json:"items"`
}

type SelectItemRequest struct {
	ItemId int `json:"item_id" validate:"required,gt=0"`
}

type SelectItemResponse struct {
	SelectedItemId int                   `json:"selected_item_id"`
	Item           ChecklistItemResponse `json:"item"`
	// Visible is false when the current search hides the selected item.
	Visible bool `json:"visible"`
}

type AttachmentResponse struct {
	Id          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SizeBytes   int64     `json:"size_bytes"`
	SizeKB      string    `json:"size_kb"`
	ContentType string    `json:"content_type"`
	AddedAt     time.Time `json:"added_at"`
}

type AddFilesResponse struct {
	ItemId           int                  `json:"item_id"`
	Added            []AttachmentResponse `json:"added"`
	TotalAttachments int                  `json:"total_attachments"`
}

type SetRemarkRequest struct {
	ItemId int
	Text   string `json:"text"`
}

type ItemDetailResponse struct {
	Item        ChecklistItemResponse `json:"item"`
	Selected    bool                  `json:"selected"`
	Attachments []AttachmentResponse  `json:"attachments"`
	Remark      string                `json:"remark"`
}

type WorkspaceResponse struct {
	SessionId        uuid.UUID            `json:"session_id"`
	Query            string               `json:"query"`
	SelectedItemId   *int                 `json:"selected_item_id"`
	Items            []ItemDetailResponse `json:"items"`
	TotalAttachments int                  `json:"total_attachments"`
}

type UploadItemRequest struct {
	ItemId          int
	DestinationRoot string `json:"destination_root" validate:"required"`
	ConflictMode    string `json:"conflict_mode"`
}

type UploadBatchResponse struct {
	ItemId          int               `json:"item_id"`
	DestinationRoot string            `json:"destination_root"`
	ConflictMode    string            `json:"conflict_mode"`
	Succeeded       int               `json:"succeeded"`
	Failed          int               `json:"failed"`
	Results         []dispatch.Result `json:"results"`
}
