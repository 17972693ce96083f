package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/events"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu         sync.Mutex
	messages   []published
	publishErr error
	flushErr   error
	flushes    int
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.messages = append(c.messages, published{subject: subject, data: data})
	return nil
}

func (c *fakeConn) FlushWithContext(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushes++
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.flushErr
}

func TestPublisher_Publish(t *testing.T) {
	at := time.Date(2026, time.March, 14, 9, 26, 53, 500, time.UTC)
	event := auth.NewAuditEvent(auth.EventUserLoggedIn, map[string]any{
		"user_id":  "6f1c3f5e-8a53-4a41-9c1e-2f7b1d2c9a10",
		"username": "alice",
	}, at)

	t.Run("writes the envelope", func(t *testing.T) {
		conn := &fakeConn{}
		publisher := events.NewPublisher(conn, "", nil)

		require.NoError(t, publisher.Publish(context.Background(), event))
		require.Len(t, conn.messages, 1)
		assert.Equal(t, events.DefaultSubject, conn.messages[0].subject)
		assert.Equal(t, 1, conn.flushes)

		var envelope events.Envelope
		require.NoError(t, json.Unmarshal(conn.messages[0].data, &envelope))
		assert.Equal(t, event.ID.String(), envelope.ID)
		assert.Equal(t, "UserLoggedIn", envelope.Event)
		assert.Equal(t, "alice", envelope.Data["username"])
		assert.Equal(t, "2026-03-14T09:26:53.0000005Z", envelope.Timestamp)
	})

	t.Run("custom subject", func(t *testing.T) {
		conn := &fakeConn{}
		require.NoError(t, events.NewPublisher(conn, "audit.auth", nil).Publish(context.Background(), event))
		assert.Equal(t, "audit.auth", conn.messages[0].subject)
	})

	t.Run("publish failure", func(t *testing.T) {
		boom := errors.New("nats: connection closed")
		conn := &fakeConn{publishErr: boom}

		err := events.NewPublisher(conn, "", nil).Publish(context.Background(), event)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, conn.flushes)
	})

	t.Run("flush failure", func(t *testing.T) {
		boom := errors.New("nats: timeout")
		conn := &fakeConn{flushErr: boom}

		err := events.NewPublisher(conn, "", nil).Publish(context.Background(), event)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context", func(t *testing.T) {
		conn := &fakeConn{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := events.NewPublisher(conn, "", nil).Publish(ctx, event)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, conn.messages)
	})
}

func TestPublisher_AsGatewayNotifier(t *testing.T) {
	conn := &fakeConn{}

	store := auth.IdentityStoreFuncs{
		FindByUsernameOrEmailFunc: func(context.Context, string) (*auth.Identity, error) {
			return nil, nil
		},
	}
	tokens, err := auth.NewTokenService([]byte("test-signing-key"), "", nil)
	require.NoError(t, err)

	gateway := auth.NewGateway(store, tokens).WithNotifier(events.NewPublisher(conn, "", nil))

	_, err = gateway.Login(context.Background(), "mallory", "guess")
	assert.ErrorIs(t, err, auth.ErrAuthenticationFailed)
	gateway.Wait()

	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Len(t, conn.messages, 1)

	var envelope events.Envelope
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &envelope))
	assert.Equal(t, auth.EventUserLoginFailed, envelope.Event)
	assert.Equal(t, map[string]any{
		"attempted_username": "mallory",
		"reason":             "Invalid credentials",
	}, envelope.Data)
}
