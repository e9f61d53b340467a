package workflow

import (
	"context"
	"testing"

	"newsdesk/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_OnlyReaders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	target := model.PublisherTarget(h.publisher.ID)

	assert.ErrorIs(t, h.svc.Subscribe(ctx, h.journalist, target), model.ErrUnauthorized)
	assert.ErrorIs(t, h.svc.Subscribe(ctx, h.editor, target), model.ErrUnauthorized)
	assert.ErrorIs(t, h.svc.Unsubscribe(ctx, h.editor, target), model.ErrUnauthorized)
	_, err := h.svc.Subscriptions(ctx, h.journalist)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestSubscribe_ValidatesTarget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.ErrorIs(t, h.svc.Subscribe(ctx, h.reader, model.PublisherTarget("missing")), model.ErrNotFound)
	assert.ErrorIs(t, h.svc.Subscribe(ctx, h.reader, model.JournalistTarget("missing")), model.ErrNotFound)
	assert.ErrorIs(t, h.svc.Subscribe(ctx, h.reader, model.JournalistTarget(h.editor.ID)), model.ErrInvalidState)
	assert.ErrorIs(t, h.svc.Subscribe(ctx, h.reader, model.Target{Kind: "topic", ID: "x"}), model.ErrInvalidState)

	// Unsubscribing from something that never existed is fine
	assert.NoError(t, h.svc.Unsubscribe(ctx, h.reader, model.PublisherTarget("missing")))
}

func TestSubscribe_FinalStateIgnoresRepetition(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := model.PublisherTarget(h.publisher.ID)
	j := model.JournalistTarget(h.journalist.ID)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.svc.Subscribe(ctx, h.reader, p))
		require.NoError(t, h.svc.Subscribe(ctx, h.reader, j))
	}
	require.NoError(t, h.svc.Unsubscribe(ctx, h.reader, j))
	require.NoError(t, h.svc.Unsubscribe(ctx, h.reader, j))

	targets, err := h.svc.Subscriptions(ctx, h.reader)
	require.NoError(t, err)
	assert.Equal(t, []model.Target{p}, targets)
}

func TestFeed_ApprovedFromFollowedSources(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fromPublisher := h.submit(t, h.journalist, h.publisher.ID)
	fromJournalist2 := h.submit(t, h.journalist2, "")
	unfollowed := h.submit(t, h.journalist, "")
	stillPending := h.submit(t, h.journalist2, "")

	for _, a := range []*model.Article{fromPublisher, fromJournalist2, unfollowed} {
		_, err := h.svc.Approve(ctx, h.editor, a.ID)
		require.NoError(t, err)
	}

	feed, err := h.svc.Feed(ctx, h.reader, 0)
	require.NoError(t, err)
	assert.Empty(t, feed)

	require.NoError(t, h.svc.Subscribe(ctx, h.reader, model.PublisherTarget(h.publisher.ID)))
	require.NoError(t, h.svc.Subscribe(ctx, h.reader, model.JournalistTarget(h.journalist2.ID)))

	feed, err = h.svc.Feed(ctx, h.reader, 0)
	require.NoError(t, err)

	var got []uuid.UUID
	for _, a := range feed {
		got = append(got, a.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{fromPublisher.ID, fromJournalist2.ID}, got)
	assert.NotContains(t, got, unfollowed.ID)
	assert.NotContains(t, got, stillPending.ID)

	_, err = h.svc.Feed(ctx, h.editor, 0)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}
