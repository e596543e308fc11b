package browser

import (
	"context"
	"testing"

	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/errs"
)

// LaunchForTest launches a driver and closes it at cleanup. It skips the test
// when Playwright or the browser binary is not installed.
func LaunchForTest(t testing.TB, p *config.Profile) *Driver {
	t.Helper()

	d, err := Launch(p, nil, "test")
	if err != nil {
		if errs.Is(err, errs.Unavailable) {
			t.Skip("Playwright not available:", err)
		}
		t.Fatalf("launch browser: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// SessionForTest opens a session that is closed at cleanup.
func SessionForTest(t testing.TB, d *Driver) *Session {
	t.Helper()

	s, err := d.NewSession(context.Background(), t.Name())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}
