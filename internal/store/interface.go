package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"newsdesk/internal/model"
)

var (
	ErrNotFound = fmt.Errorf("article %w", model.ErrNotFound)
	ErrConflict = errors.New("article changed concurrently, giving up")
)

// ListOptions narrows List. Zero values mean "no filter"; a zero Limit
// returns everything.
type ListOptions struct {
	Status      model.ArticleStatus
	AuthorID    string
	PublisherID string
	Limit       int
}

// UpdateFunc mutates an article inside an atomic read-modify-write. Returning
// an error aborts the update and is passed through to the caller unchanged.
type UpdateFunc func(article *model.Article) error

type Store interface {
	Save(ctx context.Context, article *model.Article) error
	Get(ctx context.Context, id uuid.UUID) (*model.Article, error)
	List(ctx context.Context, opts ListOptions) ([]model.Article, error)
	Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*model.Article, error)
	Delete(ctx context.Context, id uuid.UUID, guard UpdateFunc) error
}
