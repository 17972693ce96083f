package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Defaults for RetryingStore.
const (
	DefaultStoreTimeout = 3 * time.Second
	DefaultStoreRetries = 2
	defaultStoreBackoff = 50 * time.Millisecond
)

// RetryingStore decorates an IdentityStore with a per attempt timeout and a
// bounded number of retries with exponential backoff.
type RetryingStore struct {
	next    IdentityStore
	timeout time.Duration
	retries uint64
	backoff time.Duration
	logger  Logger
}

var _ IdentityStore = (*RetryingStore)(nil)

// NewRetryingStore wraps next. Non positive timeout selects DefaultStoreTimeout.
func NewRetryingStore(next IdentityStore, timeout time.Duration, retries uint64) *RetryingStore {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &RetryingStore{
		next:    next,
		timeout: timeout,
		retries: retries,
		backoff: defaultStoreBackoff,
		logger:  defLogger{},
	}
}

func (s *RetryingStore) WithLogger(logger Logger) *RetryingStore {
	s.logger = normalizeLogger(logger)
	return s
}

// WithBackoff sets the base delay between attempts.
func (s *RetryingStore) WithBackoff(d time.Duration) *RetryingStore {
	if d > 0 {
		s.backoff = d
	}
	return s
}

func (s *RetryingStore) FindByUsernameOrEmail(ctx context.Context, identifier string) (*Identity, error) {
	return s.do(ctx, "find_by_username_or_email", func(ctx context.Context) (*Identity, error) {
		return s.next.FindByUsernameOrEmail(ctx, identifier)
	})
}

func (s *RetryingStore) GetByID(ctx context.Context, id string) (*Identity, error) {
	return s.do(ctx, "get_by_id", func(ctx context.Context) (*Identity, error) {
		return s.next.GetByID(ctx, id)
	})
}

func (s *RetryingStore) do(ctx context.Context, op string, fn func(context.Context) (*Identity, error)) (*Identity, error) {
	var (
		found   *Identity
		attempt int
	)

	backoff := retry.WithMaxRetries(s.retries, retry.NewExponential(s.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		actx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		identity, err := fn(actx)
		if err != nil {
			// the caller gave up, retrying cannot help
			if ctx.Err() != nil {
				return err
			}
			s.logger.Warn("identity store attempt failed", "op", op, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}

		found = identity
		return nil
	})

	if err != nil {
		code := "STORE_UNAVAILABLE"
		if errors.Is(err, context.DeadlineExceeded) {
			code = "STORE_TIMEOUT"
		}
		return nil, oops.In("identity_store").
			Code(code).
			With("op", op, "attempts", attempt).
			Wrap(err)
	}

	return found, nil
}
