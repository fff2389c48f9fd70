// internal/pkg/cache/local_test.go
package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSetGet(t *testing.T) {
	l := NewLocal(time.Minute)
	defer l.Close()

	l.Set("catalog:product:1", []byte("v1"), time.Minute)

	val, ok := l.Get("catalog:product:1")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), val)

	_, ok = l.Get("catalog:product:2")
	assert.False(t, ok)
}

func TestLocalExpiry(t *testing.T) {
	l := NewLocal(time.Minute)
	defer l.Close()

	l.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := l.Get("k")
	assert.False(t, ok, "entry past its TTL must not be served")
}

func TestLocalDeletePattern(t *testing.T) {
	l := NewLocal(time.Minute)
	defer l.Close()

	l.Set("deals:flash:live", []byte("a"), time.Minute)
	l.Set("deals:flash:page:1", []byte("b"), time.Minute)
	l.Set("deals:featured:live", []byte("c"), time.Minute)
	l.Set("catalog:product:1", []byte("d"), time.Minute)

	l.DeletePattern("deals:flash:")

	_, ok := l.Get("deals:flash:live")
	assert.False(t, ok)
	_, ok = l.Get("deals:flash:page:1")
	assert.False(t, ok)
	_, ok = l.Get("deals:featured:live")
	assert.True(t, ok, "other namespaces must survive")
	_, ok = l.Get("catalog:product:1")
	assert.True(t, ok)
}

func TestLocalConcurrentAccess(t *testing.T) {
	l := NewLocal(time.Minute)
	defer l.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l.Set("shared", []byte("v"), time.Minute)
		}()
		go func() {
			defer wg.Done()
			l.Get("shared")
		}()
	}
	wg.Wait()

	val, ok := l.Get("shared")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}
