package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"newsdesk/internal/directory"
	"newsdesk/internal/metrics"
	"newsdesk/internal/model"
	"newsdesk/internal/notify"
	"newsdesk/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	popWait  = time.Second
	fromAddr = "noreply@newsdesk.local"
)

// Message is a rendered notification for one reader.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Courier defines the interface for actually sending a message.
// This allows us to mock the "Send" step in tests.
type Courier interface {
	Send(ctx context.Context, msg Message) error
}

// LogCourier stands in for a mail transport and only logs what it would send.
type LogCourier struct {
	logger *zap.Logger
}

func NewLogCourier(logger *zap.Logger) *LogCourier {
	return &LogCourier{logger: logger}
}

func (c *LogCourier) Send(_ context.Context, msg Message) error {
	c.logger.Info("Mail",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// Queue is the consuming side of the notification hand-off.
type Queue interface {
	Pop(ctx context.Context, wait time.Duration) (*model.NotificationIntent, error)
}

// Dispatcher drains notification intents and renders them for the courier.
type Dispatcher struct {
	queue     Queue
	store     store.Store
	directory directory.Directory
	logger    *zap.Logger
	courier   Courier
}

// NewDispatcher initializes the dispatcher with the LogCourier
func NewDispatcher(queue Queue, st store.Store, dir directory.Directory, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		store:     st,
		directory: dir,
		logger:    logger,
		courier:   NewLogCourier(logger),
	}
}

// WithCourier swaps the transport.
func (d *Dispatcher) WithCourier(c Courier) *Dispatcher {
	d.courier = c
	return d
}

// Start runs the dispatch loop until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Dispatcher started. Waiting for notifications...")

	for {
		if ctx.Err() != nil {
			d.logger.Info("Dispatcher shutting down")
			return
		}

		intent, err := d.queue.Pop(ctx, popWait)
		if errors.Is(err, notify.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info("Dispatcher shutting down")
				return
			}
			d.logger.Error("Queue error", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		err = d.process(ctx, *intent)
		metrics.RecordNotification("dispatch", err)
	}
}

func (d *Dispatcher) process(ctx context.Context, intent model.NotificationIntent) error {
	logger := d.logger.With(
		zap.String("article_id", intent.ArticleID),
		zap.String("reader_id", intent.ReaderID))

	id, err := uuid.Parse(intent.ArticleID)
	if err != nil {
		logger.Error("Dropping intent: bad article id", zap.Error(err))
		return err
	}

	article, err := d.store.Get(ctx, id)
	if err != nil {
		logger.Error("Dropping intent: article not found", zap.Error(err))
		return err
	}
	if article.Status != model.StatusApproved {
		logger.Warn("Dropping intent: article is not approved", zap.String("status", string(article.Status)))
		return fmt.Errorf("article %s is %s", article.ID, article.Status)
	}

	reader, err := d.directory.Actor(ctx, intent.ReaderID)
	if err != nil {
		logger.Error("Dropping intent: reader not found", zap.Error(err))
		return err
	}
	to := strings.TrimSpace(reader.Email)
	if to == "" {
		logger.Debug("Reader has no email, skipping")
		return nil
	}

	msg := Message{
		From:    fromAddr,
		To:      to,
		Subject: fmt.Sprintf("New approved article: %s", article.Title),
		Body:    d.render(ctx, article),
	}
	if err := d.courier.Send(ctx, msg); err != nil {
		logger.Error("Courier failed", zap.Error(err))
		return fmt.Errorf("%w: %w", model.ErrTransport, err)
	}

	logger.Info("Notification sent", zap.Any("reasons", intent.MatchReasons))
	return nil
}

func (d *Dispatcher) render(ctx context.Context, article *model.Article) string {
	publisher := "Independent"
	if !article.Independent() {
		publisher = "Unknown Publisher"
		if p, err := d.directory.Publisher(ctx, article.PublisherID); err == nil {
			publisher = p.Name
		}
	}

	author := "Unknown Author"
	if a, err := d.directory.Actor(ctx, article.AuthorID); err == nil && a.Username != "" {
		author = a.Username
	}

	var b strings.Builder
	b.WriteString("A new article has been approved and published.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	fmt.Fprintf(&b, "Publisher: %s\n", publisher)
	fmt.Fprintf(&b, "Author: %s\n", author)
	if article.Excerpt != "" {
		fmt.Fprintf(&b, "\n%s\n", article.Excerpt)
	}
	return b.String()
}
