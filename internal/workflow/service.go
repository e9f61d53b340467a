// Package workflow implements the editorial lifecycle of an article:
// submission by a journalist, a single approve-or-reject decision by an
// editor, and the subscriber fan-out that follows an approval.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"newsdesk/internal/authz"
	"newsdesk/internal/directory"
	"newsdesk/internal/excerpt"
	"newsdesk/internal/metrics"
	"newsdesk/internal/model"
	"newsdesk/internal/notify"
	"newsdesk/internal/store"
	"newsdesk/internal/subscription"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	store     store.Store
	directory directory.Directory
	index     subscription.Index
	notifier  notify.Notifier
	excerpter excerpt.Excerpter
	logger    *zap.Logger
}

func NewService(st store.Store, dir directory.Directory, idx subscription.Index, n notify.Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:     st,
		directory: dir,
		index:     idx,
		notifier:  n,
		excerpter: excerpt.ReadabilityExcerpter{},
		logger:    logger,
	}
}

type SubmitInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	PublisherID string `json:"publisher_id,omitempty"`
}

// ModifyInput carries the fields to change; nil means unchanged.
type ModifyInput struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Approval is the outcome of a successful approve call.
type Approval struct {
	Article       *model.Article `json:"article"`
	Notifications notify.Report  `json:"notifications"`
}

// ListFilter narrows the visible article list.
type ListFilter struct {
	PublisherID string
	AuthorID    string
	Limit       int
}

func deny(actor *model.Actor, c authz.Capability) error {
	role := "unknown"
	if r, ok := authz.RoleOf(actor); ok {
		role = string(r)
	}
	return fmt.Errorf("%w: %s is not allowed for role %s", model.ErrUnauthorized, c, role)
}

func maySeeUnapproved(actor *model.Actor, f ListFilter) bool {
	role, ok := authz.RoleOf(actor)
	switch {
	case !ok:
		return false
	case role == model.RoleEditor:
		return true
	case role == model.RoleJournalist:
		return f.AuthorID == "" || f.AuthorID == actor.ID
	}
	return false
}

// Submit creates a pending article authored by actor. Publisher content
// requires the author to be affiliated with that publisher.
func (s *Service) Submit(ctx context.Context, actor *model.Actor, in SubmitInput) (*model.Article, error) {
	if !authz.Authorize(actor, authz.SubmitArticle) {
		return nil, deny(actor, authz.SubmitArticle)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrInvalidState)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", model.ErrInvalidState)
	}

	publisherID := strings.TrimSpace(in.PublisherID)
	if publisherID != "" {
		if _, err := s.directory.Publisher(ctx, publisherID); err != nil {
			return nil, err
		}
		ok, err := s.directory.IsAffiliated(ctx, actor.ID, publisherID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: author %s is not affiliated with publisher %s",
				model.ErrInvalidState, actor.ID, publisherID)
		}
	}

	article := model.NewArticle(actor.ID, publisherID, title, in.Content)
	article.Excerpt = s.excerpter.Excerpt(in.Content)

	if err := s.store.Save(ctx, &article); err != nil {
		return nil, fmt.Errorf("save article: %w", err)
	}

	s.logger.Info("Article submitted",
		zap.String("article_id", article.ID.String()),
		zap.String("author_id", actor.ID),
		zap.String("publisher_id", publisherID))
	return &article, nil
}

// Approve moves a pending article to approved and then notifies subscribers.
// Notification problems are logged and reported but never undo or fail the
// approval itself.
func (s *Service) Approve(ctx context.Context, actor *model.Actor, id uuid.UUID) (*Approval, error) {
	article, err := s.decide(ctx, actor, id, authz.ApproveArticle, model.StatusApproved)
	if err != nil {
		return nil, err
	}

	report, err := s.notifier.NotifyApproval(context.WithoutCancel(ctx), article)
	if err != nil {
		s.logger.Error("Fan-out failed",
			zap.String("article_id", article.ID.String()),
			zap.Error(err))
	}

	return &Approval{Article: article, Notifications: report}, nil
}

// Reject moves a pending article to rejected. Nobody is notified.
func (s *Service) Reject(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Article, error) {
	return s.decide(ctx, actor, id, authz.RejectArticle, model.StatusRejected)
}

// decide performs the Pending -> target check-and-set atomically per article.
// Once authorized it is not cancelled by the caller going away.
func (s *Service) decide(ctx context.Context, actor *model.Actor, id uuid.UUID, c authz.Capability, target model.ArticleStatus) (*model.Article, error) {
	decision := string(target)
	if !authz.Authorize(actor, c) {
		metrics.RecordDecision(decision, "unauthorized")
		return nil, deny(actor, c)
	}

	article, err := s.store.Update(context.WithoutCancel(ctx), id, func(a *model.Article) error {
		if a.Status.Terminal() {
			return fmt.Errorf("%w: article %s is already %s", model.ErrIllegalTransition, a.ID, a.Status)
		}
		if a.Status != model.StatusPending {
			return fmt.Errorf("%w: article %s has unknown status %q", model.ErrInvalidState, a.ID, a.Status)
		}
		now := time.Now().UTC()
		a.Status = target
		a.DecidedAt = &now
		a.DecidedBy = actor.ID
		a.UpdatedAt = now
		return nil
	})
	if err != nil {
		metrics.RecordDecision(decision, resultLabel(err))
		return nil, err
	}

	metrics.RecordDecision(decision, "ok")
	s.logger.Info("Article decided",
		zap.String("article_id", id.String()),
		zap.String("status", decision),
		zap.String("editor_id", actor.ID))
	return article, nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, model.ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInvalidState):
		return "invalid_state"
	default:
		return "error"
	}
}

// Modify changes title and/or content. Status is never touched here.
func (s *Service) Modify(ctx context.Context, actor *model.Actor, id uuid.UUID, in ModifyInput) (*model.Article, error) {
	if !authz.Authorize(actor, authz.ModifyArticle) {
		return nil, deny(actor, authz.ModifyArticle)
	}

	var title, content string
	if in.Title != nil {
		if title = strings.TrimSpace(*in.Title); title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", model.ErrInvalidState)
		}
	}
	if in.Content != nil {
		if content = *in.Content; strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", model.ErrInvalidState)
		}
	}

	var teaser string
	if in.Content != nil {
		teaser = s.excerpter.Excerpt(content)
	}

	article, err := s.store.Update(ctx, id, func(a *model.Article) error {
		if err := s.guardModify(actor, a); err != nil {
			return err
		}
		if in.Title != nil {
			a.Title = title
		}
		if in.Content != nil {
			a.Content = content
			a.Excerpt = teaser
		}
		a.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Article modified",
		zap.String("article_id", id.String()),
		zap.String("actor_id", actor.ID))
	return article, nil
}

// Delete removes an article under the same rules as Modify.
func (s *Service) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	if !authz.Authorize(actor, authz.ModifyArticle) {
		return deny(actor, authz.ModifyArticle)
	}

	err := s.store.Delete(ctx, id, func(a *model.Article) error {
		return s.guardModify(actor, a)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Article deleted",
		zap.String("article_id", id.String()),
		zap.String("actor_id", actor.ID))
	return nil
}

// guardModify hides articles the actor cannot see and refuses the ones it
// can see but not change.
func (s *Service) guardModify(actor *model.Actor, a *model.Article) error {
	if !authz.CanView(actor, a) {
		return store.ErrNotFound
	}
	if !authz.CanModify(actor, a) {
		return fmt.Errorf("%w: article %s cannot be changed by %s", model.ErrUnauthorized, a.ID, actor.ID)
	}
	return nil
}

// Get returns one article if the actor may see it. Invisible articles are
// reported as not found so their existence does not leak.
func (s *Service) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Article, error) {
	article, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanView(actor, article) {
		return nil, store.ErrNotFound
	}
	return article, nil
}

// List returns visible articles newest first.
func (s *Service) List(ctx context.Context, actor *model.Actor, f ListFilter) ([]model.Article, error) {
	opts := store.ListOptions{AuthorID: f.AuthorID, PublisherID: f.PublisherID}
	if !maySeeUnapproved(actor, f) {
		// Only approved articles can be visible here, let the store skip the rest.
		opts.Status = model.StatusApproved
		opts.Limit = f.Limit
	}

	all, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return visible(actor, all, f.Limit), nil
}

func visible(actor *model.Actor, articles []model.Article, limit int) []model.Article {
	out := make([]model.Article, 0, len(articles))
	for i := range articles {
		if !authz.CanView(actor, &articles[i]) {
			continue
		}
		out = append(out, articles[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Pending is the editors' review queue.
func (s *Service) Pending(ctx context.Context, actor *model.Actor) ([]model.Article, error) {
	if !authz.Authorize(actor, authz.ViewPendingQueue) {
		return nil, deny(actor, authz.ViewPendingQueue)
	}
	return s.store.List(ctx, store.ListOptions{Status: model.StatusPending})
}
