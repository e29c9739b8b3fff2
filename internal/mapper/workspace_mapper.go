package mapper

import (
	"document-hub-be/internal/dto"
	"document-hub-be/internal/workspace"
	"document-hub-be/pkg/checklist"
	"document-hub-be/pkg/ledger"

	"github.com/google/uuid"
)

type WorkspaceMapper struct{}

func NewWorkspaceMapper() *WorkspaceMapper {
	return &WorkspaceMapper{}
}

func (m *WorkspaceMapper) ToItemResponse(item checklist.Item) dto.ChecklistItemResponse {
	return dto.ChecklistItemResponse{
		Id:    item.ID,
		Label: item.Label,
		Icon:  item.Icon,
		Title: item.Title(),
	}
}

func (m *WorkspaceMapper) ToItemResponses(items []checklist.Item) []dto.ChecklistItemResponse {
	res := make([]dto.ChecklistItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, m.ToItemResponse(item))
	}
	return res
}

func (m *WorkspaceMapper) ToAttachmentResponse(a ledger.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		Id:          a.ID,
		Name:        a.Name,
		SizeBytes:   a.SizeBytes,
		SizeKB:      a.SizeKB(),
		ContentType: a.ContentType,
		AddedAt:     a.AddedAt,
	}
}

func (m *WorkspaceMapper) ToAttachmentResponses(atts []ledger.Attachment) []dto.AttachmentResponse {
	res := make([]dto.AttachmentResponse, 0, len(atts))
	for _, a := range atts {
		res = append(res, m.ToAttachmentResponse(a))
	}
	return res
}

func (m *WorkspaceMapper) ToItemDetail(state workspace.State, item checklist.Item) dto.ItemDetailResponse {
	current, ok := state.Current()
	return dto.ItemDetailResponse{
		Item:        m.ToItemResponse(item),
		Selected:    ok && current == item.ID,
		Attachments: m.ToAttachmentResponses(state.Ledger.AttachmentsFor(item.ID)),
		Remark:      state.Ledger.RemarkFor(item.ID),
	}
}

// ToWorkspaceResponse renders the items visible under the current search.
func (m *WorkspaceMapper) ToWorkspaceResponse(
	sessionId uuid.UUID,
	state workspace.State,
	catalog *checklist.Catalog,
) *dto.WorkspaceResponse {
	visible := state.Visible(catalog)
	items := make([]dto.ItemDetailResponse, 0, len(visible))
	for _, item := range visible {
		items = append(items, m.ToItemDetail(state, item))
	}

	return &dto.WorkspaceResponse{
		SessionId:        sessionId,
		Query:            state.Query,
		SelectedItemId:   state.Selected,
		Items:            items,
		TotalAttachments: state.Ledger.TotalAttachments(),
	}
}
