// Package ledger holds the per-session mapping from checklist item to its
// attachments and remark.
//
// A Ledger is a value: every transition returns a new Ledger and leaves the
// receiver untouched, so readers holding an older Ledger never observe a
// partially applied append. Attachment content is shared between versions and
// must be treated as read-only.
package ledger

import (
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Attachment is one local file attached to a checklist item.
type Attachment struct {
	ID          uuid.UUID
	Name        string
	SizeBytes   int64
	ContentType string
	Content     []byte
	AddedAt     time.Time
}

// NewAttachment assigns an identity to content and sniffs its media type.
func NewAttachment(name string, content []byte) Attachment {
	return Attachment{
		ID:          uuid.New(),
		Name:        name,
		SizeBytes:   int64(len(content)),
		ContentType: mimetype.Detect(content).String(),
		Content:     content,
		AddedAt:     time.Now(),
	}
}

// SizeKB renders the size the way the checklist page shows it, e.g. "12.5".
func (a Attachment) SizeKB() string {
	return fmt.Sprintf("%.1f", float64(a.SizeBytes)/1024)
}

// Entry is the ledger row for one checklist item.
type Entry struct {
	ItemID      int
	Attachments []Attachment
	Remark      string
}

// Ledger is an ordered map from item id to Entry. The zero value is empty and
// ready to use.
type Ledger struct {
	order   []int
	entries map[int]Entry
}

func New() Ledger {
	return Ledger{entries: map[int]Entry{}}
}

// Append adds files to the entry for itemID, after any existing attachments.
// A nil itemID means no item is selected; the ledger is returned unchanged.
// Names are not deduplicated.
func (l Ledger) Append(itemID *int, files ...Attachment) Ledger {
	if itemID == nil || len(files) == 0 {
		return l
	}
	id := *itemID

	entry := l.entries[id]
	entry.ItemID = id
	attachments := make([]Attachment, 0, len(entry.Attachments)+len(files))
	attachments = append(attachments, entry.Attachments...)
	attachments = append(attachments, files...)
	entry.Attachments = attachments

	return l.with(entry)
}

// SetRemark overwrites the remark for itemID, creating the entry if absent.
func (l Ledger) SetRemark(itemID int, text string) Ledger {
	entry := l.entries[itemID]
	entry.ItemID = itemID
	entry.Remark = text
	return l.with(entry)
}

// AttachmentsFor returns the item's attachments in append order, or an empty
// slice. The slice is a copy.
func (l Ledger) AttachmentsFor(itemID int) []Attachment {
	entry, ok := l.entries[itemID]
	if !ok {
		return []Attachment{}
	}
	out := make([]Attachment, len(entry.Attachments))
	copy(out, entry.Attachments)
	return out
}

func (l Ledger) RemarkFor(itemID int) string {
	return l.entries[itemID].Remark
}

// Has reports whether an entry exists; an entry with no attachments and an
// empty remark still counts once it has been touched.
func (l Ledger) Has(itemID int) bool {
	_, ok := l.entries[itemID]
	return ok
}

// Entries returns the entries in the order they were first touched.
func (l Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.order))
	for _, id := range l.order {
		entry := l.entries[id]
		entry.Attachments = l.AttachmentsFor(id)
		out = append(out, entry)
	}
	return out
}

func (l Ledger) Len() int {
	return len(l.order)
}

// TotalAttachments counts attachments across all entries.
func (l Ledger) TotalAttachments() int {
	n := 0
	for _, entry := range l.entries {
		n += len(entry.Attachments)
	}
	return n
}

func (l Ledger) with(entry Entry) Ledger {
	entries := make(map[int]Entry, len(l.entries)+1)
	for id, e := range l.entries {
		entries[id] = e
	}

	order := l.order
	if _, exists := l.entries[entry.ItemID]; !exists {
		order = make([]int, len(l.order), len(l.order)+1)
		copy(order, l.order)
		order = append(order, entry.ItemID)
	}

	entries[entry.ItemID] = entry
	return Ledger{order: order, entries: entries}
}
