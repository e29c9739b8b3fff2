package workspace

import (
	"sync"
	"testing"

	"document-hub-be/pkg/checklist"
	"document-hub-be/pkg/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func files(names ...string) []ledger.Attachment {
	out := make([]ledger.Attachment, 0, len(names))
	for _, n := range names {
		out = append(out, ledger.NewAttachment(n, []byte(n)))
	}
	return out
}

func TestFilesWithoutSelectionAreDropped(t *testing.T) {
	s := NewState()

	next := Reduce(s, FilesAdded{Files: files("orphan.pdf")})

	_, ok := next.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, next.Ledger.TotalAttachments())
	assert.Equal(t, 0, next.Ledger.Len())
}

func TestFilesGoToActiveItem(t *testing.T) {
	s := NewState()
	s = Reduce(s, ItemSelected{ItemID: 5})
	s = Reduce(s, FilesAdded{Files: files("commitment.pdf")})
	s = Reduce(s, ItemSelected{ItemID: 6})
	s = Reduce(s, FilesAdded{Files: files("cpl.pdf", "cpl-2.pdf")})

	assert.Len(t, s.Ledger.AttachmentsFor(5), 1)
	assert.Len(t, s.Ledger.AttachmentsFor(6), 2)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 6, current)
}

func TestSelectionIndependentOfSearch(t *testing.T) {
	catalog, err := checklist.Default()
	require.NoError(t, err)

	s := NewState()
	s = Reduce(s, SearchChanged{Query: "budget"})
	s = Reduce(s, ItemSelected{ItemID: 17})

	visible := s.Visible(catalog)
	require.Len(t, visible, 1)
	assert.Equal(t, 8, visible[0].ID)

	current, _ := s.Current()
	assert.Equal(t, 17, current, "hidden items can stay selected")

	s = Reduce(s, SearchChanged{Query: ""})
	current, _ = s.Current()
	assert.Equal(t, 17, current, "search does not clear the selection")
	assert.Len(t, s.Visible(catalog), catalog.Len())
}

func TestReduceLeavesInputUntouched(t *testing.T) {
	before := Reduce(NewState(), ItemSelected{ItemID: 1})
	after := Reduce(before, ItemSelected{ItemID: 2})
	after = Reduce(after, RemarkChanged{ItemID: 1, Text: "signed"})

	current, _ := before.Current()
	assert.Equal(t, 1, current)
	assert.Equal(t, "", before.Ledger.RemarkFor(1))
	assert.Equal(t, "signed", after.Ledger.RemarkFor(1))
}

func TestSessionSnapshotIsStable(t *testing.T) {
	sess := NewSession()
	sess.Apply(ItemSelected{ItemID: 11})
	snap := sess.Snapshot()

	sess.Apply(FilesAdded{Files: files("front.jpg")})

	assert.Equal(t, 0, snap.Ledger.TotalAttachments())
	assert.Equal(t, 1, sess.Snapshot().Ledger.TotalAttachments())
}

func TestSessionAppliesEventsAtomically(t *testing.T) {
	sess := NewSession()
	sess.Apply(ItemSelected{ItemID: 11})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Apply(FilesAdded{Files: files("a.jpg", "b.jpg")})
		}()
	}
	wg.Wait()

	atts := sess.Snapshot().Ledger.AttachmentsFor(11)
	require.Len(t, atts, 40)
	for i := 0; i < len(atts); i += 2 {
		assert.Equal(t, "a.jpg", atts[i].Name, "a batch is never interleaved with another")
		assert.Equal(t, "b.jpg", atts[i+1].Name)
	}
}
