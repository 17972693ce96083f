package auth_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-authgate"
)

func TestRetryingStore(t *testing.T) {
	ctx := context.Background()
	alice := aliceIdentity()

	t.Run("passes through results", func(t *testing.T) {
		store := auth.NewRetryingStore(newMemoryStore(alice), time.Second, 2)

		identity, err := store.FindByUsernameOrEmail(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, identity.ID)

		identity, err = store.GetByID(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, identity)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls int32
		flaky := auth.IdentityStoreFuncs{
			GetByIDFunc: func(context.Context, string) (*auth.Identity, error) {
				if atomic.AddInt32(&calls, 1) < 3 {
					return nil, errors.New("connection reset")
				}
				return alice, nil
			},
		}

		store := auth.NewRetryingStore(flaky, time.Second, 2).WithBackoff(time.Millisecond)

		identity, err := store.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, identity.ID)
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		var calls int32
		boom := errors.New("connection refused")
		down := auth.IdentityStoreFuncs{
			FindByUsernameOrEmailFunc: func(context.Context, string) (*auth.Identity, error) {
				atomic.AddInt32(&calls, 1)
				return nil, boom
			},
		}

		store := auth.NewRetryingStore(down, time.Second, 1).WithBackoff(time.Millisecond)

		identity, err := store.FindByUsernameOrEmail(ctx, "alice")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, boom)
		assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	})

	t.Run("bounds each attempt", func(t *testing.T) {
		hanging := auth.IdentityStoreFuncs{
			GetByIDFunc: func(ctx context.Context, _ string) (*auth.Identity, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}

		store := auth.NewRetryingStore(hanging, 10*time.Millisecond, 0)

		start := time.Now()
		_, err := store.GetByID(ctx, alice.ID)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("does not retry after the caller gives up", func(t *testing.T) {
		var calls int32
		cctx, cancel := context.WithCancel(ctx)

		store := auth.NewRetryingStore(auth.IdentityStoreFuncs{
			GetByIDFunc: func(context.Context, string) (*auth.Identity, error) {
				atomic.AddInt32(&calls, 1)
				cancel()
				return nil, errors.New("interrupted")
			},
		}, time.Second, 5).WithBackoff(time.Millisecond)

		_, err := store.GetByID(cctx, alice.ID)
		assert.Error(t, err)
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	})

	t.Run("unavailable through the gateway", func(t *testing.T) {
		down := auth.IdentityStoreFuncs{
			FindByUsernameOrEmailFunc: func(context.Context, string) (*auth.Identity, error) {
				return nil, errors.New("connection refused")
			},
		}
		store := auth.NewRetryingStore(down, time.Second, 1).WithBackoff(time.Millisecond)
		gateway := auth.NewGateway(store, newTestTokenService(t, newFakeClock(testEpoch)))

		_, err := gateway.Login(ctx, "alice", "wonderland")
		assert.ErrorIs(t, err, auth.ErrUnavailable)
		gateway.Wait()
	})
}
