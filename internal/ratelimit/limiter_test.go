package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func hostGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-z]{3,12}\.(com|test|dev)`)
}

// =============================================================================
// Property: requests within the burst proceed immediately
// =============================================================================

func testThrottle_BurstAllowed(t *rapid.T) {
	burst := rapid.IntRange(1, 50).Draw(t, "burst")
	th := NewThrottle(Config{RPS: 0.001, Burst: burst, CleanupInterval: time.Hour})
	defer th.Stop()

	host := hostGenerator().Draw(t, "host")
	for i := 0; i < burst; i++ {
		if !th.Allow(host) {
			t.Fatalf("request %d of burst %d should be allowed", i+1, burst)
		}
	}
	if th.Allow(host) {
		t.Fatalf("request beyond burst %d should be throttled", burst)
	}
}

func TestThrottle_BurstAllowed(t *testing.T) {
	rapid.Check(t, testThrottle_BurstAllowed)
}

// =============================================================================
// Property: hosts are throttled independently
// =============================================================================

func testThrottle_HostsIndependent(t *rapid.T) {
	th := NewThrottle(Config{RPS: 0.001, Burst: 1, CleanupInterval: time.Hour})
	defer th.Stop()

	a := hostGenerator().Draw(t, "a")
	b := hostGenerator().Filter(func(s string) bool { return s != a }).Draw(t, "b")

	if !th.Allow(a) {
		t.Fatal("first request to a should pass")
	}
	if th.Allow(a) {
		t.Fatal("second request to a should be throttled")
	}
	if !th.Allow(b) {
		t.Fatal("host b must not be affected by host a")
	}
	if th.Len() != 2 {
		t.Fatalf("expected 2 limiters, got %d", th.Len())
	}
}

func TestThrottle_HostsIndependent(t *testing.T) {
	rapid.Check(t, testThrottle_HostsIndependent)
}

func TestThrottle_WaitHonorsContext(t *testing.T) {
	t.Parallel()
	th := NewThrottle(Config{RPS: 0.001, Burst: 1, CleanupInterval: time.Hour})
	defer th.Stop()

	require.NoError(t, th.Wait(context.Background(), "shop.test"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := th.Wait(ctx, "shop.test")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestThrottle_CleanupDropsIdle(t *testing.T) {
	t.Parallel()
	th := NewThrottle(Config{RPS: 10, Burst: 10, CleanupInterval: time.Hour})
	defer th.Stop()

	th.Limiter("old.test")
	th.mu.Lock()
	th.limiters["old.test"].lastUsed = time.Now().Add(-2 * time.Hour)
	th.mu.Unlock()
	th.Limiter("fresh.test")

	th.Cleanup()
	assert.Equal(t, 1, th.Len())
}

func TestThrottle_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	th := NewThrottle(Config{RPS: 1000, Burst: 1000, CleanupInterval: time.Hour})
	defer th.Stop()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if th.Allow("shop.test") {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(200), allowed.Load())
	assert.Equal(t, 1, th.Len())
}

func TestThrottle_StopIdempotent(t *testing.T) {
	t.Parallel()
	th := NewThrottle(DefaultConfig)
	th.Stop()
	th.Stop()
}

func TestTransport_WaitsThenForwards(t *testing.T) {
	t.Parallel()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	th := NewThrottle(Config{RPS: 0.001, Burst: 1, CleanupInterval: time.Hour})
	defer th.Stop()
	client := &http.Client{Transport: NewTransport(th, nil)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = client.Do(req)
	require.Error(t, err)
	assert.Equal(t, int64(1), hits.Load())
}
