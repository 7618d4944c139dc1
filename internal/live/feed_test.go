package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

type fakeSource struct {
	mu    sync.Mutex
	txns  map[string][]models.Transaction
	err   error
	calls int
	// gate, when set, holds List until it is closed.
	gate chan struct{}
}

func (f *fakeSource) List(_ context.Context, userID string) ([]models.Transaction, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Transaction(nil), f.txns[userID]...), nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) add(userID string, t models.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.txns == nil {
		f.txns = make(map[string][]models.Transaction)
	}
	f.txns[userID] = append(f.txns[userID], t)
}

var refNow = time.Date(2026, time.June, 17, 15, 30, 0, 0, time.UTC)

func expense(amount string, category string, date time.Time) models.Transaction {
	return models.Transaction{
		ID:       category + date.Format(time.RFC3339),
		Amount:   decimal.RequireFromString(amount),
		Type:     models.TypeExpense,
		Category: models.Category{Name: category},
		Date:     date,
	}
}

func TestFeed_NotifyDeliversNewestFirst(t *testing.T) {
	src := &fakeSource{}
	src.add("u1", expense("5", "Food", refNow.Add(-48*time.Hour)))
	src.add("u1", expense("7", "Food", refNow))
	feed := NewFeed(src)

	var got []Snapshot
	feed.Subscribe("u1", func(s Snapshot) { got = append(got, s) })

	require.NoError(t, feed.Notify(context.Background(), "u1"))
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].UserID)
	require.Len(t, got[0].Transactions, 2)
	assert.Equal(t, refNow, got[0].Transactions[0].Date)

	src.add("u1", expense("1", "Food", refNow.Add(-time.Hour)))
	require.NoError(t, feed.Notify(context.Background(), "u1"))
	require.Len(t, got, 2)
	assert.Len(t, got[1].Transactions, 3)
	assert.Greater(t, got[1].Seq, got[0].Seq)
}

func TestFeed_SkipsUsersWithoutSubscribers(t *testing.T) {
	src := &fakeSource{}
	feed := NewFeed(src)

	require.NoError(t, feed.Notify(context.Background(), "nobody"))
	assert.Zero(t, src.calls)
}

func TestFeed_Unsubscribe(t *testing.T) {
	src := &fakeSource{}
	feed := NewFeed(src)

	var a, b int
	unsubA := feed.Subscribe("u1", func(Snapshot) { a++ })
	feed.Subscribe("u1", func(Snapshot) { b++ })
	feed.Subscribe("u2", func(Snapshot) { t.Fatal("u2 must not receive u1 snapshots") })
	assert.Equal(t, 2, feed.Subscribers("u1"))

	require.NoError(t, feed.Notify(context.Background(), "u1"))
	unsubA()
	unsubA()
	require.NoError(t, feed.Notify(context.Background(), "u1"))

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, feed.Subscribers("u1"))
}

func TestFeed_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("connection reset")}
	feed := NewFeed(src)
	called := false
	feed.Subscribe("u1", func(Snapshot) { called = true })

	err := feed.Notify(context.Background(), "u1")
	require.Error(t, err)
	assert.False(t, called)
}

func TestFeed_ConcurrentSubscribeAndNotify(t *testing.T) {
	src := &fakeSource{}
	src.add("u1", expense("3", "Food", refNow))
	feed := NewFeed(src)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := feed.Subscribe("u1", func(Snapshot) {})
			unsub()
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, feed.Notify(context.Background(), "u1"))
		}()
	}
	wg.Wait()
	assert.Zero(t, feed.Subscribers("u1"))
}
