package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"newsdesk/internal/model"
	"newsdesk/internal/subscription"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSink records delivered intents and can fail or hang for chosen readers.
type MockSink struct {
	mu       sync.Mutex
	Received []model.NotificationIntent
	FailFor  map[string]bool
	HangFor  map[string]bool
	Release  chan struct{}
	calls    atomic.Int64
}

func (m *MockSink) Deliver(ctx context.Context, intent model.NotificationIntent) error {
	m.calls.Add(1)
	if m.HangFor[intent.ReaderID] {
		<-m.Release // ignores ctx on purpose
		return nil
	}
	if m.FailFor[intent.ReaderID] {
		return errors.New("simulated smtp 550")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Received = append(m.Received, intent)
	return nil
}

func (m *MockSink) readers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, i := range m.Received {
		out = append(out, i.ReaderID)
	}
	return out
}

func newTestIndex(t *testing.T) (*subscription.RedisIndex, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return subscription.NewRedisIndex(rdb), rdb
}

func approvedArticle(author, publisher string) *model.Article {
	a := model.NewArticle(author, publisher, "Headline", "")
	a.Status = model.StatusApproved
	return &a
}

func TestFanout_PublisherAndJournalistSubscribers(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Subscribe(ctx, "A", model.PublisherTarget("P")))
	require.NoError(t, idx.Subscribe(ctx, "B", model.JournalistTarget("J")))

	sink := &MockSink{}
	f := NewFanout(idx, sink, zap.NewNop())

	report, err := f.NotifyApproval(ctx, approvedArticle("J", "P"))
	require.NoError(t, err)

	assert.Equal(t, Report{Emitted: 2}, report)
	assert.ElementsMatch(t, []string{"A", "B"}, sink.readers())
}

func TestFanout_DoubleMatchIsDeduplicated(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Subscribe(ctx, "A", model.PublisherTarget("P")))
	require.NoError(t, idx.Subscribe(ctx, "A", model.JournalistTarget("J")))

	sink := &MockSink{}
	f := NewFanout(idx, sink, zap.NewNop())

	report, err := f.NotifyApproval(ctx, approvedArticle("J", "P"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Emitted)
	require.Len(t, sink.Received, 1)
	assert.Equal(t, "A", sink.Received[0].ReaderID)
	assert.ElementsMatch(t,
		[]model.MatchReason{model.MatchPublisher, model.MatchJournalist},
		sink.Received[0].MatchReasons)
}

func TestFanout_IndependentArticleIgnoresPublisherSets(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Subscribe(ctx, "A", model.PublisherTarget("P")))
	require.NoError(t, idx.Subscribe(ctx, "B", model.JournalistTarget("J")))

	sink := &MockSink{}
	report, err := NewFanout(idx, sink, zap.NewNop()).NotifyApproval(ctx, approvedArticle("J", ""))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Emitted)
	assert.Equal(t, []string{"B"}, sink.readers())
	assert.Equal(t, []model.MatchReason{model.MatchJournalist}, sink.Received[0].MatchReasons)
}

func TestFanout_NoSubscribersIsSuccess(t *testing.T) {
	idx, _ := newTestIndex(t)

	sink := &MockSink{}
	report, err := NewFanout(idx, sink, zap.NewNop()).NotifyApproval(context.Background(), approvedArticle("J", "P"))
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Empty(t, sink.Received)
}

func TestFanout_PartialFailureIsIsolated(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	for _, r := range []string{"A", "B", "C"} {
		require.NoError(t, idx.Subscribe(ctx, r, model.PublisherTarget("P")))
	}

	sink := &MockSink{FailFor: map[string]bool{"B": true}}
	report, err := NewFanout(idx, sink, zap.NewNop()).NotifyApproval(ctx, approvedArticle("J", "P"))
	require.NoError(t, err)

	assert.Equal(t, Report{Emitted: 3, Failed: 1}, report)
	assert.ElementsMatch(t, []string{"A", "C"}, sink.readers())
}

func TestFanout_HangingSinkIsBounded(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Subscribe(ctx, "A", model.PublisherTarget("P")))
	require.NoError(t, idx.Subscribe(ctx, "B", model.PublisherTarget("P")))

	sink := &MockSink{HangFor: map[string]bool{"A": true}, Release: make(chan struct{})}
	defer close(sink.Release)
	f := NewFanout(idx, sink, zap.NewNop(), WithTimeout(50*time.Millisecond))

	start := time.Now()
	report, err := f.NotifyApproval(ctx, approvedArticle("J", "P"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, Report{Emitted: 2, Failed: 1}, report)
	assert.Equal(t, []string{"B"}, sink.readers())
}

func TestFanout_DeadlineBoundsManyHangingReaders(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	hang := make(map[string]bool)
	for i := 0; i < 40; i++ {
		reader := fmt.Sprintf("reader-%02d", i)
		hang[reader] = true
		require.NoError(t, idx.Subscribe(ctx, reader, model.PublisherTarget("P")))
	}

	sink := &MockSink{HangFor: hang, Release: make(chan struct{})}
	defer close(sink.Release)
	f := NewFanout(idx, sink, zap.NewNop(),
		WithTimeout(100*time.Millisecond),
		WithConcurrency(2),
		WithDeadline(300*time.Millisecond))

	start := time.Now()
	report, err := f.NotifyApproval(ctx, approvedArticle("J", "P"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, Report{Emitted: 40, Failed: 40}, report)
	// Readers reached after the deadline never start a sink call.
	assert.Less(t, sink.calls.Load(), int64(40))
}

func TestFanout_ConcurrencyLimitStillDeliversAll(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	readers := []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7"}
	for _, r := range readers {
		require.NoError(t, idx.Subscribe(ctx, r, model.JournalistTarget("J")))
	}

	sink := &MockSink{}
	report, err := NewFanout(idx, sink, zap.NewNop(), WithConcurrency(2)).NotifyApproval(ctx, approvedArticle("J", ""))
	require.NoError(t, err)
	assert.Equal(t, len(readers), report.Emitted)
	assert.ElementsMatch(t, readers, sink.readers())
}

type brokenIndex struct{ subscription.Index }

func (brokenIndex) Subscribers(context.Context, model.Target) ([]string, error) {
	return nil, errors.New("redis down")
}

func TestFanout_IndexFailureIsReturned(t *testing.T) {
	sink := &MockSink{}
	_, err := NewFanout(brokenIndex{}, sink, zap.NewNop()).NotifyApproval(context.Background(), approvedArticle("J", "P"))
	assert.Error(t, err)
	assert.Empty(t, sink.Received)
}

func TestRedisQueue_DeliverAndPop(t *testing.T) {
	_, rdb := newTestIndex(t)
	q := NewRedisQueue(rdb, "")
	ctx := context.Background()

	first := model.NotificationIntent{ReaderID: "A", ArticleID: "x", MatchReasons: []model.MatchReason{model.MatchPublisher}}
	second := model.NotificationIntent{ReaderID: "B", ArticleID: "x", MatchReasons: []model.MatchReason{model.MatchJournalist}}
	require.NoError(t, q.Deliver(ctx, first))
	require.NoError(t, q.Deliver(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first, *got, "queue is FIFO")

	got, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second, *got)
}

func TestRedisQueue_PopEmpty(t *testing.T) {
	_, rdb := newTestIndex(t)
	q := NewRedisQueue(rdb, "q:test")

	_, err := q.Pop(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrQueueEmpty)
}
