package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"newsdesk/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	allKey           = "articles"
	pendingKey       = "articles:pending"
	maxUpdateRetries = 16
)

func articleKey(id uuid.UUID) string {
	return fmt.Sprintf("article:%s", id)
}

// HybridStore keeps metadata and status in Redis and content in Badger.
// Status lives only in Redis, so editorial transitions are atomic there.
type HybridStore struct {
	rdb *redis.Client
	db  *badger.DB
}

var _ Store = (*HybridStore)(nil)

// NewHybridStore initializes databases.
// Pass badgerPath="" to run in "Redis-Only" mode (for CLI tools).
func NewHybridStore(redisAddr string, badgerPath string) (*HybridStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	var db *badger.DB
	if badgerPath != "" {
		opts := badger.DefaultOptions(badgerPath)
		opts.Logger = nil // Silence default logger
		var err error
		db, err = badger.Open(opts)
		if err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to open badger: %w", err)
		}
	}

	return NewHybridStoreFrom(rdb, db), nil
}

// NewHybridStoreFrom wraps already opened clients. db may be nil.
func NewHybridStoreFrom(rdb *redis.Client, db *badger.DB) *HybridStore {
	return &HybridStore{rdb: rdb, db: db}
}

// Redis exposes the shared client so sibling components reuse one pool.
func (s *HybridStore) Redis() *redis.Client {
	return s.rdb
}

// Close cleans up connections
func (s *HybridStore) Close() {
	if s.rdb != nil {
		s.rdb.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

func encodeMeta(article *model.Article) ([]byte, error) {
	meta := *article
	meta.Content = ""
	return json.Marshal(meta)
}

// Save writes content to Badger first and only then commits metadata and the
// recency and pending indexes to Redis, so a failed content write never leaves
// a listed article without its body.
func (s *HybridStore) Save(ctx context.Context, article *model.Article) error {
	data, err := encodeMeta(article)
	if err != nil {
		return err
	}

	if err := s.putContent(article.ID, article.Content); err != nil {
		return err
	}

	id := article.ID.String()
	score := float64(article.CreatedAt.UnixNano())
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, articleKey(article.ID), data, 0)
	pipe.ZAdd(ctx, allKey, redis.Z{Score: score, Member: id})
	if article.Status == model.StatusPending {
		pipe.ZAdd(ctx, pendingKey, redis.Z{Score: score, Member: id})
	} else {
		pipe.ZRem(ctx, pendingKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		_ = s.dropContent(article.ID)
		return err
	}
	return nil
}

func (s *HybridStore) putContent(id uuid.UUID, content string) error {
	if content == "" {
		return nil
	}
	if s.db == nil {
		return fmt.Errorf("cannot save content: badgerdb is not initialized")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(id.String()), []byte(content))
	})
}

func (s *HybridStore) dropContent(id uuid.UUID) error {
	if s.db == nil {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(id.String()))
	})
}

func (s *HybridStore) loadContent(article *model.Article) error {
	if s.db == nil {
		return nil
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(article.ID.String()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			article.Content = string(val)
			return nil
		})
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return nil
}

// Get combines data: Metadata from Redis + Content from Badger
func (s *HybridStore) Get(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	val, err := s.rdb.Get(ctx, articleKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var article model.Article
	if err := json.Unmarshal(val, &article); err != nil {
		return nil, err
	}

	if err := s.loadContent(&article); err != nil {
		return nil, err
	}
	return &article, nil
}

// List returns article metadata newest first. Content is not loaded.
func (s *HybridStore) List(ctx context.Context, opts ListOptions) ([]model.Article, error) {
	source := allKey
	if opts.Status == model.StatusPending {
		source = pendingKey
	}

	ids, err := s.rdb.ZRevRange(ctx, source, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	articles := make([]model.Article, 0, len(ids))
	for _, idStr := range ids {
		val, err := s.rdb.Get(ctx, "article:"+idStr).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		} else if err != nil {
			return nil, err
		}

		var a model.Article
		if err := json.Unmarshal(val, &a); err != nil {
			return nil, fmt.Errorf("decode article %s: %w", idStr, err)
		}
		if !matches(&a, opts) {
			continue
		}
		articles = append(articles, a)
		if opts.Limit > 0 && len(articles) == opts.Limit {
			break
		}
	}

	return articles, nil
}

func matches(a *model.Article, opts ListOptions) bool {
	if opts.Status != "" && a.Status != opts.Status {
		return false
	}
	if opts.AuthorID != "" && a.AuthorID != opts.AuthorID {
		return false
	}
	if opts.PublisherID != "" && a.PublisherID != opts.PublisherID {
		return false
	}
	return true
}

// Update runs fn against the current article under WATCH/MULTI/EXEC. If another
// writer commits in between, the read is repeated so fn always decides on the
// latest state; fn may therefore run more than once and must not have side
// effects. Changed content is written to Badger before the metadata commits
// and put back if the commit does not go through.
func (s *HybridStore) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*model.Article, error) {
	key := articleKey(id)
	var updated model.Article

	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		var article model.Article
		if err := json.Unmarshal(val, &article); err != nil {
			return err
		}
		if err := s.loadContent(&article); err != nil {
			return err
		}
		previous := article.Content

		if err := fn(&article); err != nil {
			return err
		}

		data, err := encodeMeta(&article)
		if err != nil {
			return err
		}

		contentChanged := article.Content != previous
		if contentChanged {
			if err := s.putContent(id, article.Content); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if article.Status != model.StatusPending {
				pipe.ZRem(ctx, pendingKey, id.String())
			}
			return nil
		})
		if err != nil {
			if contentChanged {
				_ = s.restoreContent(id, previous)
			}
			return err
		}
		updated = article
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &updated, nil
	}

	return nil, ErrConflict
}

func (s *HybridStore) restoreContent(id uuid.UUID, content string) error {
	if content == "" {
		return s.dropContent(id)
	}
	return s.putContent(id, content)
}

// Delete removes metadata, index entries and content. A non-nil guard sees the
// current article inside the same WATCH scope and can veto the delete.
func (s *HybridStore) Delete(ctx context.Context, id uuid.UUID, guard UpdateFunc) error {
	key := articleKey(id)

	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		if guard != nil {
			var article model.Article
			if err := json.Unmarshal(val, &article); err != nil {
				return err
			}
			if err := guard(&article); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, allKey, id.String())
			pipe.ZRem(ctx, pendingKey, id.String())
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < maxUpdateRetries; i++ {
		err = s.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	if err != nil {
		return err
	}

	return s.dropContent(id)
}
