// Package workspace models one user's checklist session: the search text, the
// active checklist item and the attachment ledger. Transitions are pure
// functions from State to State; Session serializes them.
package workspace

import (
	"sync"
	"time"

	"document-hub-be/pkg/checklist"
	"document-hub-be/pkg/ledger"

	"github.com/google/uuid"
)

// State is an immutable snapshot of a workspace.
type State struct {
	Query    string
	Selected *int
	Ledger   ledger.Ledger
}

func NewState() State {
	return State{Ledger: ledger.New()}
}

// Current returns the active item id, if any.
func (s State) Current() (int, bool) {
	if s.Selected == nil {
		return 0, false
	}
	return *s.Selected, true
}

// Visible applies the current search text to the catalog.
func (s State) Visible(catalog *checklist.Catalog) []checklist.Item {
	return checklist.Filter(catalog.List(), s.Query)
}

// Event is an inbound user action.
type Event interface {
	apply(State) State
}

// SearchChanged replaces the search text. It never touches the selection.
type SearchChanged struct {
	Query string
}

// ItemSelected makes ItemID the target of the next file intake, whether or
// not it is visible under the current search.
type ItemSelected struct {
	ItemID int
}

// FilesAdded appends files to the active item; without one it is a no-op.
type FilesAdded struct {
	Files []ledger.Attachment
}

// RemarkChanged overwrites the remark of ItemID.
type RemarkChanged struct {
	ItemID int
	Text   string
}

func (e SearchChanged) apply(s State) State {
	s.Query = e.Query
	return s
}

func (e ItemSelected) apply(s State) State {
	id := e.ItemID
	s.Selected = &id
	return s
}

func (e FilesAdded) apply(s State) State {
	s.Ledger = s.Ledger.Append(s.Selected, e.Files...)
	return s
}

func (e RemarkChanged) apply(s State) State {
	s.Ledger = s.Ledger.SetRemark(e.ItemID, e.Text)
	return s
}

// Reduce returns the state after e. s is not modified.
func Reduce(s State, e Event) State {
	return e.apply(s)
}

// Session owns the State of one workspace and applies events one at a time.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu    sync.Mutex
	state State
}

func NewSession() *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		state:     NewState(),
	}
}

// Apply runs e against the current state and publishes the result atomically.
func (s *Session) Apply(e Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, e)
	return s.state
}

// Snapshot returns the current state. It stays valid while later events are applied.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
