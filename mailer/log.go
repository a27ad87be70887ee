package mailer

import (
	"context"
	"sync"
)

// LogSender writes messages to the logger instead of delivering them.
// Sent messages are kept so they can be inspected.
type LogSender struct {
	mu       sync.Mutex
	logger   Logger
	messages []*Message
}

func NewLogSender(logger Logger) *LogSender {
	if logger == nil {
		logger = nopLogger{}
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.logger.Info("email", "to", msg.To, "subject", msg.Subject, "text", msg.Text)

	return nil
}

// Messages returns a copy of the messages sent so far
func (s *LogSender) Messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Message, len(s.messages))
	copy(out, s.messages)
	return out
}
