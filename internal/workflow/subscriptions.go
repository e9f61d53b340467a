package workflow

import (
	"context"
	"fmt"

	"newsdesk/internal/authz"
	"newsdesk/internal/model"
	"newsdesk/internal/store"

	"go.uber.org/zap"
)

// Subscribe lets a reader follow a publisher or a journalist. Repeating it
// has no further effect.
func (s *Service) Subscribe(ctx context.Context, actor *model.Actor, target model.Target) error {
	if !authz.Authorize(actor, authz.Subscribe) {
		return deny(actor, authz.Subscribe)
	}
	if err := s.checkTarget(ctx, target); err != nil {
		return err
	}

	if err := s.index.Subscribe(ctx, actor.ID, target); err != nil {
		return err
	}
	s.logger.Debug("Subscribed",
		zap.String("reader_id", actor.ID),
		zap.Stringer("target", target))
	return nil
}

// Unsubscribe removes a subscription; removing one that does not exist is
// not an error.
func (s *Service) Unsubscribe(ctx context.Context, actor *model.Actor, target model.Target) error {
	if !authz.Authorize(actor, authz.Subscribe) {
		return deny(actor, authz.Subscribe)
	}

	if err := s.index.Unsubscribe(ctx, actor.ID, target); err != nil {
		return err
	}
	s.logger.Debug("Unsubscribed",
		zap.String("reader_id", actor.ID),
		zap.Stringer("target", target))
	return nil
}

// Subscriptions lists what the reader follows.
func (s *Service) Subscriptions(ctx context.Context, actor *model.Actor) ([]model.Target, error) {
	if !authz.Authorize(actor, authz.Subscribe) {
		return nil, deny(actor, authz.Subscribe)
	}
	return s.index.Subscriptions(ctx, actor.ID)
}

// Feed returns approved articles from everything the reader follows.
func (s *Service) Feed(ctx context.Context, actor *model.Actor, limit int) ([]model.Article, error) {
	targets, err := s.Subscriptions(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return []model.Article{}, nil
	}

	publishers := make(map[string]bool)
	journalists := make(map[string]bool)
	for _, t := range targets {
		switch t.Kind {
		case model.TargetPublisher:
			publishers[t.ID] = true
		case model.TargetJournalist:
			journalists[t.ID] = true
		}
	}

	approved, err := s.store.List(ctx, store.ListOptions{Status: model.StatusApproved})
	if err != nil {
		return nil, err
	}

	feed := make([]model.Article, 0)
	for _, a := range approved {
		if !journalists[a.AuthorID] && (a.Independent() || !publishers[a.PublisherID]) {
			continue
		}
		feed = append(feed, a)
		if limit > 0 && len(feed) == limit {
			break
		}
	}
	return feed, nil
}

func (s *Service) checkTarget(ctx context.Context, target model.Target) error {
	switch target.Kind {
	case model.TargetPublisher:
		_, err := s.directory.Publisher(ctx, target.ID)
		return err
	case model.TargetJournalist:
		actor, err := s.directory.Actor(ctx, target.ID)
		if err != nil {
			return err
		}
		if actor.Role != model.RoleJournalist {
			return fmt.Errorf("%w: %s is not a journalist", model.ErrInvalidState, target.ID)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown target kind %q", model.ErrInvalidState, target.Kind)
}
