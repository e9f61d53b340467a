// Package directory holds the actor records handed over by the identity
// provider together with publishers and their memberships.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"newsdesk/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const publishersKey = "publishers"

func actorKey(id string) string {
	return "actor:" + id
}

func roleKey(role model.Role) string {
	return "role:" + strings.ToLower(string(role))
}

func publisherKey(id string) string {
	return "publisher:" + id
}

func publisherNameKey(name string) string {
	return "publisher:name:" + strings.ToLower(name)
}

func membersKey(publisherID string) string {
	return fmt.Sprintf("publisher:%s:members", publisherID)
}

// Directory is what the workflow needs to know about actors and publishers.
type Directory interface {
	Actor(ctx context.Context, id string) (*model.Actor, error)
	Publisher(ctx context.Context, id string) (*model.Publisher, error)
	IsAffiliated(ctx context.Context, actorID, publisherID string) (bool, error)
}

type RedisDirectory struct {
	rdb *redis.Client
}

var _ Directory = (*RedisDirectory)(nil)

func NewRedisDirectory(rdb *redis.Client) *RedisDirectory {
	return &RedisDirectory{rdb: rdb}
}

// CreateActor stores an activated account and assigns its role. Role
// assignment happens right here rather than in a save hook: the actor is
// removed from every role set and added to the one matching its role.
func (d *RedisDirectory) CreateActor(ctx context.Context, actor model.Actor) error {
	if strings.TrimSpace(actor.ID) == "" {
		return fmt.Errorf("%w: actor id is required", model.ErrInvalidState)
	}
	if !actor.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", model.ErrInvalidState, actor.Role)
	}

	data, err := json.Marshal(actor)
	if err != nil {
		return err
	}

	pipe := d.rdb.TxPipeline()
	pipe.Set(ctx, actorKey(actor.ID), data, 0)
	for _, r := range model.Roles {
		pipe.SRem(ctx, roleKey(r), actor.ID)
	}
	pipe.SAdd(ctx, roleKey(actor.Role), actor.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (d *RedisDirectory) Actor(ctx context.Context, id string) (*model.Actor, error) {
	val, err := d.rdb.Get(ctx, actorKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("actor %s: %w", id, model.ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	var actor model.Actor
	if err := json.Unmarshal(val, &actor); err != nil {
		return nil, err
	}
	return &actor, nil
}

// ActorsWithRole lists actor ids currently assigned to role.
func (d *RedisDirectory) ActorsWithRole(ctx context.Context, role model.Role) ([]string, error) {
	ids, err := d.rdb.SMembers(ctx, roleKey(role)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// CreatePublisher registers a publisher under a unique, case-insensitive name.
func (d *RedisDirectory) CreatePublisher(ctx context.Context, name, description string) (*model.Publisher, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: publisher name is required", model.ErrInvalidState)
	}

	p := model.Publisher{ID: uuid.NewString(), Name: name, Description: description}
	ok, err := d.rdb.SetNX(ctx, publisherNameKey(name), p.ID, 0).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: publisher %q already exists", model.ErrInvalidState, name)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	pipe := d.rdb.TxPipeline()
	pipe.Set(ctx, publisherKey(p.ID), data, 0)
	pipe.SAdd(ctx, publishersKey, p.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *RedisDirectory) Publisher(ctx context.Context, id string) (*model.Publisher, error) {
	val, err := d.rdb.Get(ctx, publisherKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("publisher %s: %w", id, model.ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	var p model.Publisher
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Publishers returns every publisher sorted by name.
func (d *RedisDirectory) Publishers(ctx context.Context) ([]model.Publisher, error) {
	ids, err := d.rdb.SMembers(ctx, publishersKey).Result()
	if err != nil {
		return nil, err
	}

	out := make([]model.Publisher, 0, len(ids))
	for _, id := range ids {
		p, err := d.Publisher(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AddMember affiliates an editor or journalist with a publisher. The
// membership role must match the actor's own role.
func (d *RedisDirectory) AddMember(ctx context.Context, publisherID, actorID string, memberRole model.Role) error {
	if memberRole != model.RoleEditor && memberRole != model.RoleJournalist {
		return fmt.Errorf("%w: only editors and journalists can be members", model.ErrInvalidState)
	}
	if _, err := d.Publisher(ctx, publisherID); err != nil {
		return err
	}
	actor, err := d.Actor(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != memberRole {
		return fmt.Errorf("%w: membership as %s requires the %s role, actor has %s",
			model.ErrInvalidState, memberRole, memberRole, actor.Role)
	}

	return d.rdb.HSet(ctx, membersKey(publisherID), actorID, string(memberRole)).Err()
}

// Members maps actor id to membership role.
func (d *RedisDirectory) Members(ctx context.Context, publisherID string) (map[string]model.Role, error) {
	raw, err := d.rdb.HGetAll(ctx, membersKey(publisherID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Role, len(raw))
	for id, role := range raw {
		out[id] = model.Role(role)
	}
	return out, nil
}

func (d *RedisDirectory) IsAffiliated(ctx context.Context, actorID, publisherID string) (bool, error) {
	return d.rdb.HExists(ctx, membersKey(publisherID), actorID).Result()
}
