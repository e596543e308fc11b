// Package timing holds latency budgets and the checks that enforce them.
package timing

import (
	"fmt"
	"time"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

// Budgets observed against the public storefront.
const (
	PageLoadBudget  = 5 * time.Second
	LoginBudget     = 5 * time.Second
	APIBudget       = 3 * time.Second
	ConcurrentCalls = 5
)

// Stopwatch measures one elapsed interval.
type Stopwatch struct {
	start time.Time
	now   func() time.Time
}

// Start returns a running stopwatch.
func Start() *Stopwatch {
	return &Stopwatch{start: time.Now(), now: time.Now}
}

// Elapsed returns the time since Start.
func (s *Stopwatch) Elapsed() time.Duration {
	return s.now().Sub(s.start)
}

// AssertWithin fails with AssertionFailed when elapsed exceeds max.
func AssertWithin(label string, elapsed, max time.Duration) error {
	if elapsed > max {
		return errs.Assertion(fmt.Sprintf("%s duration", label), "<= "+max.String(), elapsed.Round(time.Millisecond).String())
	}
	return nil
}

// NavigationTiming mirrors the fields of window.performance.timing the harness reads.
type NavigationTiming struct {
	NavigationStart          float64 `json:"navigationStart"`
	DOMContentLoadedEventEnd float64 `json:"domContentLoadedEventEnd"`
	LoadEventEnd             float64 `json:"loadEventEnd"`
}

// DOMContentLoaded returns domContentLoadedEventEnd - navigationStart.
func (n NavigationTiming) DOMContentLoaded() (time.Duration, error) {
	if n.NavigationStart <= 0 || n.DOMContentLoadedEventEnd <= 0 {
		return 0, errs.New(errs.Internal, "navigation timing not available yet")
	}
	if n.DOMContentLoadedEventEnd < n.NavigationStart {
		return 0, errs.Newf(errs.Internal, "navigation timing out of order: start=%v dcl=%v", n.NavigationStart, n.DOMContentLoadedEventEnd)
	}
	return time.Duration((n.DOMContentLoadedEventEnd - n.NavigationStart) * float64(time.Millisecond)), nil
}

// FromMap decodes the object returned by evaluating `performance.timing.toJSON()`.
func FromMap(v any) (NavigationTiming, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return NavigationTiming{}, errs.Newf(errs.Internal, "unexpected performance.timing value %T", v)
	}
	return NavigationTiming{
		NavigationStart:          number(m["navigationStart"]),
		DOMContentLoadedEventEnd: number(m["domContentLoadedEventEnd"]),
		LoadEventEnd:             number(m["loadEventEnd"]),
	}, nil
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
