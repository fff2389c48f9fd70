// internal/pkg/idempotency/guard_test.go
package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/pkg/apperr"
)

// fakeLockStore 以原子语义模拟 set-if-absent。
type fakeLockStore struct {
	mu     sync.Mutex
	keys   map[string]bool
	setErr error
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{keys: map[string]bool{}}
}

func (f *fakeLockStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return false, f.setErr
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func TestWithLockSingleWinnerUnderConcurrency(t *testing.T) {
	guard := NewGuard(newFakeLockStore(), 5*time.Second)

	var executed, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := guard.WithLock(context.Background(), "customer:c1", "cart.add", "/api/cart/items", []byte(`{"productId":"p1"}`), func(ctx context.Context) error {
				executed.Add(1)
				return nil
			})
			if apperr.Is(err, apperr.CodeAlreadyProcessing) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), executed.Load(), "exactly one identical submission may pass")
	assert.Equal(t, int32(19), rejected.Load())
}

func TestWithLockDistinctRequestsDoNotBlockEachOther(t *testing.T) {
	guard := NewGuard(newFakeLockStore(), 5*time.Second)
	ctx := context.Background()
	body := []byte(`{"productId":"p1"}`)

	run := func(identity, action, path string, payload []byte) error {
		return guard.WithLock(ctx, identity, action, path, payload, func(ctx context.Context) error { return nil })
	}

	require.NoError(t, run("customer:c1", "cart.add", "/api/cart/items", body))
	require.NoError(t, run("customer:c2", "cart.add", "/api/cart/items", body), "another identity must not be locked out")
	require.NoError(t, run("customer:c1", "cart.remove", "/api/cart/items", body), "another action must not be locked out")
	require.NoError(t, run("customer:c1", "cart.add", "/api/cart/items", []byte(`{"productId":"p2"}`)), "another body must not be locked out")

	err := run("customer:c1", "cart.add", "/api/cart/items", body)
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyProcessing))
}

func TestWithLockFailsOpenWhenStoreUnavailable(t *testing.T) {
	store := newFakeLockStore()
	store.setErr = errors.New("connection refused")
	guard := NewGuard(store, 5*time.Second)

	executed := false
	err := guard.WithLock(context.Background(), "customer:c1", "cart.add", "/api/cart/items", nil, func(ctx context.Context) error {
		executed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, executed, "a lock store outage must not block traffic")
}

func TestWithLockPropagatesHandlerError(t *testing.T) {
	guard := NewGuard(newFakeLockStore(), 5*time.Second)

	want := apperr.New(apperr.CodeInsufficientStock, "requested 5 exceeds available stock 2")
	err := guard.WithLock(context.Background(), "guest:g1", "cart.add", "/api/cart/items", nil, func(ctx context.Context) error {
		return want
	})
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientStock))
}

func TestFingerprintIsDeterministic(t *testing.T) {
	a := Fingerprint("customer:c1", "cart.add", "/api/cart/items", []byte("body"))
	b := Fingerprint("customer:c1", "cart.add", "/api/cart/items", []byte("body"))
	c := Fingerprint("customer:c1", "cart.add", "/api/cart/items", []byte("body2"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
