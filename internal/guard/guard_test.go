package guard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// --- KeyedMutex Tests ---

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("scan-1")
			counter++
			km.Unlock("scan-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	km.Lock("scan-a")

	done := make(chan struct{})
	go func() {
		km.Lock("scan-b")
		km.Unlock("scan-b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}

	km.Unlock("scan-a")
}

func TestKeyedMutex_EntriesReleased(t *testing.T) {
	km := NewKeyedMutex()

	km.Lock("scan-1")
	km.Unlock("scan-1")
	km.Lock("scan-2")
	km.Unlock("scan-2")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}

// --- RateLimiter Tests ---

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("scan-1"), "attempt %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	rl.Allow("scan-1")
	rl.Allow("scan-1")

	assert.False(t, rl.Allow("scan-1"))
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("scan-a"))
	assert.True(t, rl.Allow("scan-b"))
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	assert.True(t, rl.Allow("scan-1"))
	assert.False(t, rl.Allow("scan-1"))

	time.Sleep(20 * time.Millisecond)

	assert.True(t, rl.Allow("scan-1"), "key usable again after the window slides")
}

func TestRateLimiter_StaleKeysSwept(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	assert.True(t, rl.Allow("scan-done"))

	time.Sleep(25 * time.Millisecond)

	// A hit on any key triggers the sweep once the window has passed.
	assert.True(t, rl.Allow("scan-live"))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.windows, "scan-done", "expired keys should be removed")
	assert.Contains(t, rl.windows, "scan-live")
}
