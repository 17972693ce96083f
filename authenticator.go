package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultPublishTimeout bounds a single audit publication.
const DefaultPublishTimeout = 2 * time.Second

// Gateway answers login and "who is this token for" requests by combining
// a CredentialVerifier, a TokenService and an IdentityStore.
type Gateway struct {
	store          IdentityStore
	verifier       *CredentialVerifier
	tokens         *TokenService
	notifier       EventNotifier
	publishTimeout time.Duration
	clock          Clock
	logger         Logger
	metrics        *Metrics
	pending        sync.WaitGroup
}

// NewGateway returns a Gateway verifying credentials with PBKDF2Hasher.
func NewGateway(store IdentityStore, tokens *TokenService) *Gateway {
	return &Gateway{
		store:          store,
		verifier:       NewCredentialVerifier(store, nil),
		tokens:         tokens,
		notifier:       noopNotifier{},
		publishTimeout: DefaultPublishTimeout,
		logger:         defLogger{},
	}
}

func (g *Gateway) WithLogger(logger Logger) *Gateway {
	g.logger = normalizeLogger(logger)
	g.verifier.WithLogger(g.logger)
	return g
}

// WithHasher replaces the password hasher used for verification.
func (g *Gateway) WithHasher(hasher PasswordHasher) *Gateway {
	g.verifier = NewCredentialVerifier(g.store, hasher).WithLogger(g.logger)
	return g
}

// WithNotifier configures where audit events are published.
func (g *Gateway) WithNotifier(notifier EventNotifier) *Gateway {
	g.notifier = normalizeNotifier(notifier)
	return g
}

// WithPublishTimeout bounds each audit publication. Non positive values
// restore DefaultPublishTimeout.
func (g *Gateway) WithPublishTimeout(d time.Duration) *Gateway {
	if d <= 0 {
		d = DefaultPublishTimeout
	}
	g.publishTimeout = d
	return g
}

// WithClock sets the time source used to stamp audit events.
func (g *Gateway) WithClock(clock Clock) *Gateway {
	g.clock = clock
	return g
}

// WithMetrics enables Prometheus instrumentation.
func (g *Gateway) WithMetrics(m *Metrics) *Gateway {
	g.metrics = m
	return g
}

// TokenService returns the TokenService used by this Gateway.
func (g *Gateway) TokenService() *TokenService {
	return g.tokens
}

// Login verifies the credentials and issues a token. Every failure returns
// ErrAuthenticationFailed so callers cannot tell unknown accounts from wrong
// passwords. Audit publication never affects the result.
func (g *Gateway) Login(ctx context.Context, usernameOrEmail, plaintext string) (*Token, error) {
	identity, err := g.verifier.Verify(ctx, usernameOrEmail, plaintext)
	if err != nil {
		g.logger.Error("login identity lookup failed", "identifier", usernameOrEmail, "error", err)
		g.metrics.login(OutcomeError)
		g.emit(ctx, EventUserLoginFailed, loginFailedPayload(usernameOrEmail))
		return nil, ErrUnavailable.WithCause(err)
	}

	if identity == nil {
		g.logger.Info("login rejected", "identifier", usernameOrEmail)
		g.metrics.login(OutcomeFailure)
		g.emit(ctx, EventUserLoginFailed, loginFailedPayload(usernameOrEmail))
		return nil, ErrAuthenticationFailed
	}

	token, err := g.tokens.Issue(identity)
	if err != nil {
		g.logger.Error("login token issue failed", "user_id", identity.ID, "error", err)
		g.metrics.login(OutcomeError)
		return nil, err
	}

	g.metrics.login(OutcomeSuccess)
	g.emit(ctx, EventUserLoggedIn, map[string]any{
		"user_id":  identity.ID,
		"username": identity.Username,
	})

	return token, nil
}

// ResolveFromHeader resolves the identity behind an Authorization header
// carrying a bearer token.
func (g *Gateway) ResolveFromHeader(ctx context.Context, header string) (*Identity, error) {
	raw, err := ParseBearer(header)
	if err != nil {
		g.metrics.validation(string(KindMissingCredential))
		return nil, err
	}
	return g.ResolveFromToken(ctx, raw)
}

// ResolveFromToken validates raw and loads the identity it references.
// ErrIdentityNotFound means the token was valid but the subject is gone.
func (g *Gateway) ResolveFromToken(ctx context.Context, raw string) (*Identity, error) {
	subject, err := g.tokens.Validate(raw)
	if err != nil {
		g.metrics.validation(string(KindOf(err)))
		return nil, err
	}

	identity, err := g.store.GetByID(ctx, subject.ID)
	if err != nil {
		g.logger.Error("resolve identity lookup failed", "user_id", subject.ID, "error", err)
		g.metrics.validation(string(KindUnavailable))
		return nil, ErrUnavailable.WithCause(err)
	}

	if identity == nil {
		g.logger.Info("resolve found no identity for valid token", "user_id", subject.ID)
		g.metrics.validation(string(KindIdentityNotFound))
		return nil, ErrIdentityNotFound
	}

	g.metrics.validation(OutcomeSuccess)
	return identity, nil
}

// Wait blocks until every audit publication started so far has finished.
func (g *Gateway) Wait() {
	g.pending.Wait()
}

// emit publishes event on a detached goroutine bounded by publishTimeout.
// The request context only contributes values; its cancellation is ignored.
func (g *Gateway) emit(ctx context.Context, name string, payload map[string]any) {
	event := NewAuditEvent(name, payload, g.clock.now())
	notifier := normalizeNotifier(g.notifier)

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()

		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.publishTimeout)
		defer cancel()

		if err := safePublish(pctx, notifier, event); err != nil {
			g.metrics.publishFailure(name)
			g.logger.Warn("audit event publish failed", "event", name, "event_id", event.ID.String(), "error", err)
		}
	}()
}

func safePublish(ctx context.Context, notifier EventNotifier, event AuditEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return notifier.Publish(ctx, event)
}

func loginFailedPayload(identifier string) map[string]any {
	return map[string]any{
		"attempted_username": identifier,
		"reason":             ErrAuthenticationFailed.Message,
	}
}
