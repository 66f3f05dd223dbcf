package notify

import (
	"context"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
)

// Log writes notifications to the structured log. It is the only sink when
// no chat backend is configured and a copy of Telegram otherwise.
type Log struct {
	log logger.Logger
}

func NewLog(log logger.Logger) *Log {
	return &Log{log: log.With(logger.String("sink", "log"))}
}

func (l *Log) NotifyPosting(_ context.Context, p domain.Posting) error {
	l.log.Info("new posting",
		logger.String("company", p.Company),
		logger.String("title", p.Title),
		logger.String("url", p.URL),
		logger.String("source", p.SourceName),
		logger.String("posted_at", p.PostedAt))
	return nil
}

func (l *Log) NotifySummary(_ context.Context, companies []string) error {
	l.log.Info("companies with new postings", logger.Strings("companies", companies))
	return nil
}

func (l *Log) NotifyOperator(_ context.Context, msg string) error {
	l.log.Info("operator status", logger.String("message", msg))
	return nil
}
