package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Audit event names published by the Gateway.
const (
	EventUserLoggedIn    = "UserLoggedIn"
	EventUserLoginFailed = "UserLoginFailed"
)

// AuditEvent describes an authentication outcome.
type AuditEvent struct {
	ID        ulid.ULID
	Name      string
	Payload   map[string]any
	Timestamp time.Time
}

// NewAuditEvent stamps a new event with an id and timestamp.
func NewAuditEvent(name string, payload map[string]any, at time.Time) AuditEvent {
	if payload == nil {
		payload = map[string]any{}
	}
	return AuditEvent{
		ID:        ulid.Make(),
		Name:      name,
		Payload:   payload,
		Timestamp: at.UTC(),
	}
}

// EventNotifier publishes audit events. Delivery is best-effort; callers
// log and discard returned errors.
type EventNotifier interface {
	Publish(ctx context.Context, event AuditEvent) error
}

// NotifierFunc adapts a function to the EventNotifier interface.
type NotifierFunc func(ctx context.Context, event AuditEvent) error

// Publish implements EventNotifier.
func (f NotifierFunc) Publish(ctx context.Context, event AuditEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, AuditEvent) error {
	return nil
}

func normalizeNotifier(n EventNotifier) EventNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
