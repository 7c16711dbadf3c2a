package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/logfields"
)

const flushTimeout = 5 * time.Second

// NATS publishes events as JSON on a subject. Deliveries that fail are kept
// in the dead-letter queue and retried by Redeliver.
type NATS struct {
	conn    *nats.Conn
	subject string
	dlq     *DeadLetterQueue
	logger  *slog.Logger
}

// NewNATS connects to the server named by cfg.URL.
func NewNATS(cfg config.EventsConfig, logger *slog.Logger) (*NATS, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigError("events.url is required for NATS publishing").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("mdpipeline"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logfields.Error(err))
			}
		}))
	if err != nil {
		return nil, errors.ConfigError("failed to connect to NATS").
			WithCause(err).WithContext("url", cfg.URL).Retryable().Build()
	}
	logger.Info("NATS event publisher connected", "url", cfg.URL, "subject", cfg.Subject)
	return &NATS{conn: conn, subject: cfg.Subject, dlq: NewDeadLetterQueue(), logger: logger}, nil
}

// Publish sends e and waits for the server to acknowledge the flush.
func (n *NATS) Publish(ctx context.Context, e Event) error {
	if err := n.send(ctx, e); err != nil {
		n.dlq.Enqueue(FailedEvent{Event: e, Error: err, Timestamp: time.Now()})
		return err
	}
	return nil
}

func (n *NATS) send(ctx context.Context, e Event) error {
	data, err := e.Encode()
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to publish event").
			WithContext("subject", n.subject).Retryable().Build()
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to flush event").
			WithContext("subject", n.subject).Retryable().Build()
	}
	n.logger.Debug("Published event", logfields.Document(e.Document), logfields.Outcome(e.Outcome))
	return nil
}

// Redeliver retries every dead-lettered event once and returns how many
// were delivered.
func (n *NATS) Redeliver(ctx context.Context) int {
	delivered := 0
	for _, fe := range n.dlq.Drain() {
		if err := n.Publish(ctx, fe.Event); err != nil {
			continue
		}
		delivered++
	}
	return delivered
}

// DeadLetters returns the queue of undelivered events.
func (n *NATS) DeadLetters() *DeadLetterQueue { return n.dlq }

// Close drains pending messages and closes the connection.
func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return errors.WrapError(err, errors.CategoryInternal, "failed to drain NATS connection").Build()
	}
	return nil
}
