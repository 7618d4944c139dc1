package bot

import (
	"sync"
	"time"

	"gitlab.com/yelinaung/expenditure-manager/internal/voice"
)

// DraftTTL is how long an unconfirmed draft survives without activity.
const DraftTTL = 30 * time.Minute

type pendingDraft struct {
	draft   *voice.Draft
	touched time.Time
}

// draftStore holds one in-progress draft per chat. Drafts are never
// persisted, so the heard text is dropped with them.
type draftStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[int64]*pendingDraft
}

func newDraftStore(ttl time.Duration) *draftStore {
	return &draftStore{
		ttl:    ttl,
		now:    time.Now,
		drafts: make(map[int64]*pendingDraft),
	}
}

// update runs fn on the chat's draft, creating one if none is live, and
// returns a copy of the result.
func (s *draftStore) update(chatID int64, fn func(*voice.Draft)) voice.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()

	p, ok := s.drafts[chatID]
	if !ok {
		p = &pendingDraft{draft: voice.NewDraft()}
		s.drafts[chatID] = p
	}
	fn(p.draft)
	p.touched = s.now()
	return *p.draft
}

func (s *draftStore) get(chatID int64) (voice.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()

	p, ok := s.drafts[chatID]
	if !ok {
		return voice.Draft{}, false
	}
	return *p.draft, true
}

func (s *draftStore) drop(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, chatID)
}

func (s *draftStore) pruneLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, p := range s.drafts {
		if p.touched.Before(cutoff) {
			delete(s.drafts, id)
		}
	}
}
