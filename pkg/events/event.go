package events

import "time"

const (
	TypeDocumentUploaded     = "DOCUMENT_UPLOADED"
	TypeDocumentUploadFailed = "DOCUMENT_UPLOAD_FAILED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_UPLOADED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// DocumentUpload reports the outcome of pushing one attachment to storage.
type DocumentUpload struct {
	SessionID     string
	ItemID        int
	AttachmentID  string
	Name          string
	RequestedPath string
	CommittedPath string
	ErrorKind     string
	Reason        string
	OccurredAt    time.Time
}

func (e DocumentUpload) Succeeded() bool {
	return e.ErrorKind == "" && e.Reason == ""
}

func (e DocumentUpload) EventType() string {
	if e.Succeeded() {
		return TypeDocumentUploaded
	}
	return TypeDocumentUploadFailed
}

func (e DocumentUpload) Payload() map[string]interface{} {
	data := map[string]interface{}{
		"session_id":     e.SessionID,
		"item_id":        e.ItemID,
		"attachment_id":  e.AttachmentID,
		"name":           e.Name,
		"requested_path": e.RequestedPath,
		"occurred_at":    e.OccurredAt.Format(time.RFC3339),
	}
	if e.Succeeded() {
		data["committed_path"] = e.CommittedPath
	} else {
		data["error_kind"] = e.ErrorKind
		data["reason"] = e.Reason
	}
	return data
}

func (e DocumentUpload) Timestamp() time.Time {
	return e.OccurredAt
}
