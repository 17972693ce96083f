package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-authgate"
)

// MockIdentityStore implements auth.IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) FindByUsernameOrEmail(ctx context.Context, identifier string) (*auth.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityStore) GetByID(ctx context.Context, id string) (*auth.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

// memoryStore is a map backed identity store keyed by id.
type memoryStore struct {
	mu    sync.Mutex
	users map[string]*auth.Identity
}

func newMemoryStore(identities ...*auth.Identity) *memoryStore {
	s := &memoryStore{users: map[string]*auth.Identity{}}
	for _, identity := range identities {
		s.users[identity.ID] = identity
	}
	return s
}

func (s *memoryStore) FindByUsernameOrEmail(_ context.Context, identifier string) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, identity := range s.users {
		if identity.Username == identifier || identity.Email == identifier {
			copied := *identity
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *identity
	return &copied, nil
}

func (s *memoryStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// recordingNotifier collects published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []auth.AuditEvent
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, event auth.AuditEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []auth.AuditEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]auth.AuditEvent, len(n.events))
	copy(out, n.events)
	return out
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testEpoch = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

const testSigningKey = "test-signing-key"

func aliceIdentity() *auth.Identity {
	return &auth.Identity{
		ID:               "6f1c3f5e-8a53-4a41-9c1e-2f7b1d2c9a10",
		Username:         "alice",
		Email:            "alice@example.com",
		CredentialDigest: auth.HashPassword("wonderland"),
	}
}
