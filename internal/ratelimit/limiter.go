// Package ratelimit paces outbound requests per host so the harness stays a
// polite client of the shared public storefront.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config defines the throttle configuration.
type Config struct {
	RPS             float64       // Requests per second per host
	Burst           int           // Burst size per host
	CleanupInterval time.Duration // How often idle limiters are dropped
}

// DefaultConfig keeps a single run well under anything the storefront would notice.
var DefaultConfig = Config{
	RPS:             5,
	Burst:           5,
	CleanupInterval: 10 * time.Minute,
}

// limiterEntry holds a rate limiter and tracks its last usage.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// Throttle manages per-host rate limiting.
type Throttle struct {
	limiters map[string]*limiterEntry
	mu       sync.RWMutex
	config   Config

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewThrottle creates a throttle and starts its cleanup goroutine.
func NewThrottle(config Config) *Throttle {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig.CleanupInterval
	}
	th := &Throttle{
		limiters: make(map[string]*limiterEntry),
		config:   config,
		stopCh:   make(chan struct{}),
	}

	th.wg.Add(1)
	go th.cleanupLoop()

	return th
}

// Wait blocks until a request to host may proceed or ctx is done. When the
// wait would outlast ctx's deadline the error wraps context.DeadlineExceeded.
func (th *Throttle) Wait(ctx context.Context, host string) error {
	err := th.Limiter(host).Wait(ctx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// Allow reports whether a request to host may proceed right now.
func (th *Throttle) Allow(host string) bool {
	return th.Limiter(host).Allow()
}

// Limiter returns the limiter for host, creating one if necessary.
func (th *Throttle) Limiter(host string) *rate.Limiter {
	th.mu.RLock()
	entry, exists := th.limiters[host]
	th.mu.RUnlock()
	if exists {
		th.touch(entry)
		return entry.limiter
	}

	th.mu.Lock()
	defer th.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists = th.limiters[host]; exists {
		entry.lastUsed = time.Now()
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(th.config.RPS), th.config.Burst)
	th.limiters[host] = &limiterEntry{
		limiter:  limiter,
		lastUsed: time.Now(),
	}
	return limiter
}

func (th *Throttle) touch(entry *limiterEntry) {
	th.mu.Lock()
	entry.lastUsed = time.Now()
	th.mu.Unlock()
}

// Cleanup removes limiters idle for longer than the cleanup interval.
func (th *Throttle) Cleanup() {
	th.mu.Lock()
	defer th.mu.Unlock()

	cutoff := time.Now().Add(-th.config.CleanupInterval)
	for host, entry := range th.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(th.limiters, host)
		}
	}
}

func (th *Throttle) cleanupLoop() {
	defer th.wg.Done()

	ticker := time.NewTicker(th.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			th.Cleanup()
		case <-th.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine and waits for it to finish. Safe to call twice.
func (th *Throttle) Stop() {
	th.stopOnce.Do(func() { close(th.stopCh) })
	th.wg.Wait()
}

// Len returns the number of hosts with a live limiter.
func (th *Throttle) Len() int {
	th.mu.RLock()
	defer th.mu.RUnlock()
	return len(th.limiters)
}
