// Package notify sends best-effort messages to users.
package notify

import (
	"context"

	"github.com/ABH36/Machine-test/config"

	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers a message. Callers treat a returned error as
// non-fatal.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a LogNotifier, or Noop when no sender address is configured.
func New(cfg config.NotifyConfig, logger *zap.Logger) Notifier {
	if cfg.From == "" {
		logger.Info("Notifier not configured, notifications disabled")
		return Noop{}
	}
	return &LogNotifier{from: cfg.From, logger: logger}
}

type Noop struct{}

func (Noop) Send(context.Context, Message) error { return nil }

// LogNotifier simulates email delivery by writing the message to the log.
type LogNotifier struct {
	from   string
	logger *zap.Logger
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("[EMAIL]",
		zap.String("from", n.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
