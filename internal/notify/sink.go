package notify

import (
	"context"

	"go.uber.org/zap"
)

// Message is one outgoing notification
type Message struct {
	From       string   `json:"from"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

// Sink delivers notification messages. Implementations must be safe for
// concurrent use.
type Sink interface {
	Send(ctx context.Context, msg *Message) error
}

// LogSink writes notifications to the application log instead of delivering
// them. Used in development and as a fallback when no gateway is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, msg *Message) error {
	s.logger.Info("notification",
		zap.Strings("recipients", msg.Recipients),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
