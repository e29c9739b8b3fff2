package memory

import (
	"time"

	"document-hub-be/internal/workspace"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps workspaces in process memory. Entries expire after
// ttl of inactivity; Get refreshes the expiry.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

func (r *SessionRepository) Save(session *workspace.Session) {
	r.cache.Set(session.ID.String(), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*workspace.Session, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	session := x.(*workspace.Session)
	r.cache.Set(sessionID, session, r.ttl)
	return session, true
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
