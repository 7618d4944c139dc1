package live

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/analytics"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// View is the dashboard derived from one snapshot.
type View struct {
	Seq       uint64                               `json:"-"`
	UpdatedAt time.Time                            `json:"updatedAt"`
	Balance   decimal.Decimal                      `json:"balance"`
	Summaries map[models.Period]analytics.Summary  `json:"summaries"`
	Charts    map[models.Period][]analytics.Bucket `json:"charts"`
	Recent    []models.Transaction                 `json:"recent"`
}

// RecentLimit caps the transactions kept in View.Recent.
const RecentLimit = 10

// Board keeps the latest dashboard per user. Snapshots older than the one
// already applied are ignored, so the newest reload always wins.
type Board struct {
	feed *Feed
	now  func() time.Time
	loc  *time.Location

	mu      sync.RWMutex
	views   map[string]View
	watches map[string]*watch
}

// watch is one user's subscription. ready closes once the initial load has
// finished; err holds its outcome.
type watch struct {
	unsub func()
	ready chan struct{}
	err   error
}

// NewBoard creates a Board fed by feed. A nil loc means UTC.
func NewBoard(feed *Feed, loc *time.Location) *Board {
	if loc == nil {
		loc = time.UTC
	}
	return &Board{
		feed:    feed,
		now:     time.Now,
		loc:     loc,
		views:   make(map[string]View),
		watches: make(map[string]*watch),
	}
}

// Watch subscribes the board to userID if it is not already, then loads an
// initial snapshot. Callers arriving while that load runs wait for it and
// share its result. A failed load drops the subscription so the next call
// retries.
func (b *Board) Watch(ctx context.Context, userID string) error {
	b.mu.Lock()
	w, ok := b.watches[userID]
	if !ok {
		w = &watch{ready: make(chan struct{})}
		w.unsub = b.feed.Subscribe(userID, b.Apply)
		b.watches[userID] = w
	}
	b.mu.Unlock()

	if ok {
		select {
		case <-w.ready:
			return w.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := b.feed.Notify(ctx, userID)
	if err != nil {
		b.mu.Lock()
		if b.watches[userID] == w {
			w.unsub()
			delete(b.watches, userID)
		}
		b.mu.Unlock()
	}
	w.err = err
	close(w.ready)
	return err
}

// Unwatch drops userID's subscription and view.
func (b *Board) Unwatch(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.watches[userID]; ok {
		w.unsub()
		delete(b.watches, userID)
	}
	delete(b.views, userID)
}

// Close drops every subscription.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, w := range b.watches {
		w.unsub()
		delete(b.watches, id)
	}
}

// Apply recomputes userID's view from snap.
func (b *Board) Apply(snap Snapshot) {
	now := b.now().In(b.loc)
	view := View{
		Seq:       snap.Seq,
		UpdatedAt: snap.LoadedAt,
		Balance:   analytics.Balance(snap.Transactions),
		Summaries: make(map[models.Period]analytics.Summary, len(models.Periods)),
		Charts:    make(map[models.Period][]analytics.Bucket, len(models.Periods)),
		Recent:    snap.Transactions[:min(len(snap.Transactions), RecentLimit)],
	}
	for _, p := range models.Periods {
		view.Summaries[p] = analytics.Aggregate(snap.Transactions, p, now)
		view.Charts[p] = analytics.Buckets(snap.Transactions, p, now)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.views[snap.UserID]; ok && cur.Seq > snap.Seq {
		return
	}
	b.views[snap.UserID] = view
}

// View returns the latest view for userID.
func (b *Board) View(userID string) (View, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.views[userID]
	return v, ok
}
