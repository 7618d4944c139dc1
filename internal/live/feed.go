// Package live pushes fresh transaction snapshots to in-process subscribers
// whenever a user's transactions change.
package live

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("gitlab.com/yelinaung/expenditure-manager/internal/live")

// Source loads a user's full transaction list.
type Source interface {
	List(ctx context.Context, userID string) ([]models.Transaction, error)
}

// Snapshot is the complete transaction list of one user at a point in time,
// newest first. Seq increases with every reload so consumers can drop stale
// deliveries.
type Snapshot struct {
	UserID       string
	Seq          uint64
	LoadedAt     time.Time
	Transactions []models.Transaction
}

// Feed fans snapshots out to per-user subscribers.
type Feed struct {
	src Source
	now func() time.Time
	seq atomic.Uint64

	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]func(Snapshot)
}

// NewFeed creates a Feed that reloads from src.
func NewFeed(src Source) *Feed {
	return &Feed{
		src:  src,
		now:  time.Now,
		subs: make(map[string]map[uint64]func(Snapshot)),
	}
}

// Subscribe registers fn for userID's snapshots. The returned func removes
// the subscription and is safe to call more than once.
func (f *Feed) Subscribe(userID string, fn func(Snapshot)) (unsubscribe func()) {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[uint64]func(Snapshot))
	}
	f.subs[userID][id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[userID], id)
			if len(f.subs[userID]) == 0 {
				delete(f.subs, userID)
			}
		})
	}
}

// Subscribers returns the number of active subscriptions for userID.
func (f *Feed) Subscribers(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[userID])
}

// Notify reloads userID's transactions and delivers the snapshot to every
// subscriber on the calling goroutine. Users with no subscribers are skipped.
func (f *Feed) Notify(ctx context.Context, userID string) error {
	fns := f.subscribers(userID)
	if len(fns) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "live.Notify",
		trace.WithAttributes(attribute.Int("subscribers", len(fns))))
	defer span.End()

	seq := f.seq.Add(1)
	txns, err := f.src.List(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reload failed")
		logger.Log.Error().Err(err).Str("user", logger.HashUserID(userID)).Msg("Failed to reload transactions")
		return fmt.Errorf("failed to reload transactions: %w", err)
	}
	slices.SortStableFunc(txns, func(a, b models.Transaction) int {
		return b.Date.Compare(a.Date)
	})

	snap := Snapshot{UserID: userID, Seq: seq, LoadedAt: f.now(), Transactions: txns}
	for _, fn := range fns {
		fn(snap)
	}
	return nil
}

func (f *Feed) subscribers(userID string) []func(Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]uint64, 0, len(f.subs[userID]))
	for id := range f.subs[userID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, f.subs[userID][id])
	}
	return fns
}
