package memory

import (
	"time"

	"commandcenter-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps per-session working state in memory. Entries expire
// after an hour of inactivity; expiry only loses routing hints, never turns.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(state *store.WorkingState) {
	r.cache.Set(state.ID, state, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.WorkingState, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.WorkingState), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
