package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
)

// Publisher sends broken link events somewhere.
type Publisher interface {
	PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishBrokenLink(context.Context, *BrokenLinkEvent) error { return nil }
func (NoopPublisher) Close() error                                           { return nil }

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// NATSPublisher publishes events as JSON on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	now     func() time.Time
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("mdlinkcheck"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, errors.BrokerUnavailable(url, fmt.Errorf("connect to NATS: %w", err)).WithContext("subject", subject)
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return newNATSPublisher(nc, subject), nil
}

func newNATSPublisher(c conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, now: time.Now}
}

// PublishBrokenLink stamps and publishes event.
func (p *NATSPublisher) PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.PublishError(p.subject, err)
	}

	slog.Debug("Published broken link event",
		logfields.Target(event.Target),
		logfields.Document(event.Document),
		logfields.Status(event.Code))
	return nil
}

// Close flushes pending events and closes the connection.
func (p *NATSPublisher) Close() error {
	err := p.conn.FlushTimeout(5 * time.Second)
	p.conn.Close()
	if err != nil {
		return errors.PublishError(p.subject, fmt.Errorf("flush: %w", err))
	}
	return nil
}
