package notifications

import (
	"context"
	"log/slog"
)

// LogSender writes emails to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email Email) error {
	s.logger.InfoContext(ctx, "email",
		"from", email.From,
		"to", email.To,
		"subject", email.Subject,
		"body", email.Body,
	)
	return nil
}
