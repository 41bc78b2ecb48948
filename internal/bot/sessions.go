package bot

import (
	"sync"
	"time"
)

// sessionTTL bounds how long a pending edit waits for the follow-up
// message before it is silently discarded.
const sessionTTL = 5 * time.Minute

// pendingEdit remembers that a user was asked to send a value for one
// field of one item.
type pendingEdit struct {
	itemID  int64
	field   string
	expires time.Time
}

// sessionStore keeps at most one pending edit per user
type sessionStore struct {
	mu      sync.Mutex
	pending map[int64]pendingEdit
	now     func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		pending: make(map[int64]pendingEdit),
		now:     time.Now,
	}
}

// Put registers a pending edit, replacing any previous one for the user
func (s *sessionStore) Put(userID, itemID int64, field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = pendingEdit{
		itemID:  itemID,
		field:   field,
		expires: s.now().Add(sessionTTL),
	}
}

// Take removes and returns the user's pending edit. Expired edits are
// dropped as if they never existed.
func (s *sessionStore) Take(userID int64) (pendingEdit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	edit, ok := s.pending[userID]
	if !ok {
		return pendingEdit{}, false
	}
	delete(s.pending, userID)
	if s.now().After(edit.expires) {
		return pendingEdit{}, false
	}
	return edit, true
}
