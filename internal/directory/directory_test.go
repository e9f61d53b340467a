package directory

import (
	"context"
	"testing"

	"newsdesk/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) (*RedisDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisDirectory(rdb), mr
}

func TestCreateActor_AssignsExactlyOneRole(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.CreateActor(ctx, model.Actor{ID: "u1", Username: "ann", Role: model.RoleReader}))

	readers, err := d.ActorsWithRole(ctx, model.RoleReader)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, readers)

	// Re-activating with a different role moves the actor
	require.NoError(t, d.CreateActor(ctx, model.Actor{ID: "u1", Username: "ann", Role: model.RoleJournalist}))

	readers, _ = d.ActorsWithRole(ctx, model.RoleReader)
	journalists, _ := d.ActorsWithRole(ctx, model.RoleJournalist)
	assert.Empty(t, readers)
	assert.Equal(t, []string{"u1"}, journalists)

	actor, err := d.Actor(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleJournalist, actor.Role)
}

func TestCreateActor_RejectsUnknownRole(t *testing.T) {
	d, mr := newTestDirectory(t)

	err := d.CreateActor(context.Background(), model.Actor{ID: "u1", Role: "Admin"})
	assert.ErrorIs(t, err, model.ErrInvalidState)
	assert.False(t, mr.Exists(actorKey("u1")))
}

func TestActor_NotFound(t *testing.T) {
	d, _ := newTestDirectory(t)

	_, err := d.Actor(context.Background(), "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPublishers_UniqueNameAndSorted(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	_, err := d.CreatePublisher(ctx, "Zeta Times", "")
	require.NoError(t, err)
	alpha, err := d.CreatePublisher(ctx, "Alpha Post", "daily")
	require.NoError(t, err)

	_, err = d.CreatePublisher(ctx, "alpha post", "")
	assert.ErrorIs(t, err, model.ErrInvalidState)

	all, err := d.Publishers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, alpha.ID, all[0].ID)

	_, err = d.Publisher(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAddMember_RoleMustMatch(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	p, err := d.CreatePublisher(ctx, "Daily", "")
	require.NoError(t, err)
	require.NoError(t, d.CreateActor(ctx, model.Actor{ID: "j1", Role: model.RoleJournalist}))
	require.NoError(t, d.CreateActor(ctx, model.Actor{ID: "r1", Role: model.RoleReader}))

	assert.ErrorIs(t, d.AddMember(ctx, p.ID, "j1", model.RoleEditor), model.ErrInvalidState)
	assert.ErrorIs(t, d.AddMember(ctx, p.ID, "r1", model.RoleReader), model.ErrInvalidState)
	assert.ErrorIs(t, d.AddMember(ctx, "nope", "j1", model.RoleJournalist), model.ErrNotFound)
	require.NoError(t, d.AddMember(ctx, p.ID, "j1", model.RoleJournalist))

	ok, err := d.IsAffiliated(ctx, "j1", p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.IsAffiliated(ctx, "r1", p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	members, err := d.Members(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Role{"j1": model.RoleJournalist}, members)
}
