// Package events publishes audit events to NATS.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samber/oops"

	auth "github.com/goliatone/go-authgate"
)

// DefaultSubject is the subject audit events are published on.
const DefaultSubject = "auth-events"

// Envelope is the JSON document written to the wire.
type Envelope struct {
	ID        string         `json:"id"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// Publisher implements auth.EventNotifier over a NATS connection.
type Publisher struct {
	conn    Conn
	subject string
	logger  auth.Logger
}

var _ auth.EventNotifier = (*Publisher)(nil)

// NewPublisher creates a publisher. An empty subject selects DefaultSubject.
func NewPublisher(conn Conn, subject string, logger auth.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}
}

// Publish encodes event and waits, within ctx, for the server to accept it.
func (p *Publisher) Publish(ctx context.Context, event auth.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return oops.In("events").Code("PUBLISH_CANCELLED").Wrap(err)
	}

	data, err := json.Marshal(Envelope{
		ID:        event.ID.String(),
		Event:     event.Name,
		Data:      event.Payload,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return oops.In("events").Code("PUBLISH_ENCODE").With("event", event.Name).Wrap(err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return oops.In("events").Code("PUBLISH_FAILED").With("event", event.Name, "subject", p.subject).Wrap(err)
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return oops.In("events").Code("PUBLISH_FLUSH").With("event", event.Name, "subject", p.subject).Wrap(err)
	}

	if p.logger != nil {
		p.logger.Debug("audit event published", "event", event.Name, "subject", p.subject)
	}
	return nil
}

// Connect dials NATS. The connection keeps retrying in the background when
// the server is down so startup never depends on the broker.
func Connect(url, name string, timeout time.Duration) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, oops.In("events").Code("NATS_CONNECT").With("url", url).Wrap(err)
	}
	return nc, nil
}
