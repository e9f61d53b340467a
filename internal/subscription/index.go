// Package subscription maps readers to the publishers and journalists they
// follow, in both directions.
package subscription

import (
	"context"
	"fmt"
	"sort"

	"newsdesk/internal/model"

	"github.com/redis/go-redis/v9"
)

// Index answers who follows a target and what a reader follows. Results are
// sets; callers must not rely on their order.
type Index interface {
	Subscribe(ctx context.Context, readerID string, target model.Target) error
	Unsubscribe(ctx context.Context, readerID string, target model.Target) error
	Subscribers(ctx context.Context, target model.Target) ([]string, error)
	Subscriptions(ctx context.Context, readerID string) ([]model.Target, error)
}

func subscribersKey(t model.Target) string {
	return fmt.Sprintf("subscribers:%s:%s", t.Kind, t.ID)
}

func followingKey(readerID string, kind model.TargetKind) string {
	return fmt.Sprintf("reader:%s:%s", readerID, kind)
}

// RedisIndex stores each direction as a Redis set. SADD and SREM are
// idempotent, so repeated calls collapse to the last distinct intent.
type RedisIndex struct {
	rdb *redis.Client
}

var _ Index = (*RedisIndex)(nil)

func NewRedisIndex(rdb *redis.Client) *RedisIndex {
	return &RedisIndex{rdb: rdb}
}

func validate(readerID string, t model.Target) error {
	if readerID == "" || t.ID == "" {
		return fmt.Errorf("%w: reader and target are required", model.ErrInvalidState)
	}
	if t.Kind != model.TargetPublisher && t.Kind != model.TargetJournalist {
		return fmt.Errorf("%w: unknown target kind %q", model.ErrInvalidState, t.Kind)
	}
	return nil
}

func (x *RedisIndex) Subscribe(ctx context.Context, readerID string, target model.Target) error {
	if err := validate(readerID, target); err != nil {
		return err
	}
	_, err := x.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, subscribersKey(target), readerID)
		pipe.SAdd(ctx, followingKey(readerID, target.Kind), target.ID)
		return nil
	})
	return err
}

func (x *RedisIndex) Unsubscribe(ctx context.Context, readerID string, target model.Target) error {
	if err := validate(readerID, target); err != nil {
		return err
	}
	_, err := x.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, subscribersKey(target), readerID)
		pipe.SRem(ctx, followingKey(readerID, target.Kind), target.ID)
		return nil
	})
	return err
}

func (x *RedisIndex) Subscribers(ctx context.Context, target model.Target) ([]string, error) {
	return x.rdb.SMembers(ctx, subscribersKey(target)).Result()
}

func (x *RedisIndex) Subscriptions(ctx context.Context, readerID string) ([]model.Target, error) {
	var out []model.Target
	for _, kind := range []model.TargetKind{model.TargetPublisher, model.TargetJournalist} {
		ids, err := x.rdb.SMembers(ctx, followingKey(readerID, kind)).Result()
		if err != nil {
			return nil, err
		}
		sort.Strings(ids)
		for _, id := range ids {
			out = append(out, model.Target{Kind: kind, ID: id})
		}
	}
	return out, nil
}
