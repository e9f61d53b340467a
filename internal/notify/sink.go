package notify

import (
	"context"

	"newsdesk/internal/model"

	"go.uber.org/zap"
)

// Sink is the transport collaborator. Implementations must honor ctx; the
// fan-out stops waiting for them once the delivery timeout passes.
type Sink interface {
	Deliver(ctx context.Context, intent model.NotificationIntent) error
}

// LogSink only logs intents. Useful when no queue is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(_ context.Context, intent model.NotificationIntent) error {
	s.logger.Info("Notification intent",
		zap.String("reader_id", intent.ReaderID),
		zap.String("article_id", intent.ArticleID),
		zap.Any("reasons", intent.MatchReasons))
	return nil
}
