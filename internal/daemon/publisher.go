package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
	"git.home.luguber.info/inful/tocbuilder/internal/daemon/events"
	"git.home.luguber.info/inful/tocbuilder/internal/logfields"
)

// Publisher forwards bus events to NATS subjects. Build completions go to
// <subject>.finished, broken references to <subject>.broken.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the configured NATS server.
func NewPublisher(cfg *config.NATSConfig) (*Publisher, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("tocbuilder"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS %s: %w", cfg.URL, err)
	}

	slog.Info("NATS publisher connected",
		slog.String("url", cfg.URL),
		logfields.Subject(cfg.Subject))

	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// Attach subscribes to build events on the bus and forwards them until the
// context is canceled or the bus closes.
func (p *Publisher) Attach(ctx context.Context, bus *events.Bus) {
	finished, unsubF := events.Subscribe[events.BuildFinished](bus, 16)
	broken, unsubB := events.Subscribe[events.BrokenReference](bus, 64)

	go func() {
		defer unsubF()
		defer unsubB()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-finished:
				if !ok {
					return
				}
				p.publish(p.subject+".finished", evt)
			case evt, ok := <-broken:
				if !ok {
					return
				}
				p.publish(p.subject+".broken", evt)
			}
		}
	}()
}

func (p *Publisher) publish(subject string, evt any) {
	data, err := json.Marshal(evt)
	if err != nil {
		slog.Error("Failed to marshal event", logfields.Subject(subject), logfields.Error(err))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		slog.Warn("Failed to publish event", logfields.Subject(subject), logfields.Error(err))
		return
	}
	slog.Debug("Published event", logfields.Subject(subject))
}

// Close flushes and closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	_ = p.conn.Flush()
	p.conn.Close()
}
