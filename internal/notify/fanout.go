// Package notify decides who hears about an approved article and hands one
// intent per reader to the transport.
package notify

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"newsdesk/internal/metrics"
	"newsdesk/internal/model"
	"newsdesk/internal/subscription"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultDeadline    = 10 * time.Second
	DefaultConcurrency = 8
)

// Report summarises one fan-out. Emitted counts intents handed to the sink,
// one per unique reader; Failed is the subset the sink did not accept.
type Report struct {
	Emitted int `json:"emitted"`
	Failed  int `json:"failed"`
}

// Notifier is what the workflow calls after an approval commits.
type Notifier interface {
	NotifyApproval(ctx context.Context, article *model.Article) (Report, error)
}

type Fanout struct {
	index       subscription.Index
	sink        Sink
	logger      *zap.Logger
	timeout     time.Duration
	deadline    time.Duration
	concurrency int
}

var _ Notifier = (*Fanout)(nil)

type Option func(*Fanout)

// WithTimeout bounds each single delivery.
func WithTimeout(d time.Duration) Option {
	return func(f *Fanout) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithDeadline bounds the whole fan-out. Readers not reached in time are
// counted as failed.
func WithDeadline(d time.Duration) Option {
	return func(f *Fanout) {
		if d > 0 {
			f.deadline = d
		}
	}
}

// WithConcurrency bounds parallel deliveries.
func WithConcurrency(n int) Option {
	return func(f *Fanout) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

func NewFanout(index subscription.Index, sink Sink, logger *zap.Logger, opts ...Option) *Fanout {
	f := &Fanout{
		index:       index,
		sink:        sink,
		logger:      logger,
		timeout:     DefaultTimeout,
		deadline:    DefaultDeadline,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Recipients resolves the deduplicated readers of an article together with
// the reasons each one matched.
func (f *Fanout) Recipients(ctx context.Context, article *model.Article) ([]model.NotificationIntent, error) {
	reasons := make(map[string][]model.MatchReason)

	if !article.Independent() {
		readers, err := f.index.Subscribers(ctx, model.PublisherTarget(article.PublisherID))
		if err != nil {
			return nil, fmt.Errorf("publisher subscribers: %w", err)
		}
		for _, r := range readers {
			reasons[r] = append(reasons[r], model.MatchPublisher)
		}
	}

	readers, err := f.index.Subscribers(ctx, model.JournalistTarget(article.AuthorID))
	if err != nil {
		return nil, fmt.Errorf("journalist subscribers: %w", err)
	}
	for _, r := range readers {
		reasons[r] = append(reasons[r], model.MatchJournalist)
	}

	intents := make([]model.NotificationIntent, 0, len(reasons))
	for reader, why := range reasons {
		intents = append(intents, model.NotificationIntent{
			ReaderID:     reader,
			ArticleID:    article.ID.String(),
			MatchReasons: why,
		})
	}
	sort.Slice(intents, func(i, j int) bool { return intents[i].ReaderID < intents[j].ReaderID })
	return intents, nil
}

// NotifyApproval emits exactly one intent per unique reader. A failing or
// slow sink for one reader never stops the others; such failures are logged
// and counted in the report, not returned. The error is reserved for failing
// to resolve recipients at all. The call returns within the fan-out deadline
// no matter how many readers there are.
func (f *Fanout) NotifyApproval(ctx context.Context, article *model.Article) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, f.deadline)
	defer cancel()

	intents, err := f.Recipients(ctx, article)
	if err != nil {
		return Report{}, err
	}

	logger := f.logger.With(zap.String("article_id", article.ID.String()))
	metrics.RecordFanout(len(intents))

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(f.concurrency)
	for _, intent := range intents {
		g.Go(func() error {
			err := f.deliver(ctx, intent)
			metrics.RecordNotification("fanout", err)
			if err != nil {
				failed.Add(1)
				logger.Warn("Notification delivery failed",
					zap.String("reader_id", intent.ReaderID),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Emitted: len(intents), Failed: int(failed.Load())}
	logger.Info("Fan-out complete",
		zap.Int("emitted", report.Emitted),
		zap.Int("failed", report.Failed))
	return report, nil
}

// deliver waits at most f.timeout for the sink, even if the sink ignores ctx.
// Once the fan-out deadline has passed the sink is not called at all.
func (f *Fanout) deliver(ctx context.Context, intent model.NotificationIntent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: reader %s: %w", model.ErrTransport, intent.ReaderID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- f.sink.Deliver(ctx, intent)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: reader %s: %w", model.ErrTransport, intent.ReaderID, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: reader %s: %w", model.ErrTransport, intent.ReaderID, ctx.Err())
	}
}
