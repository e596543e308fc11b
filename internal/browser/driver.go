// Package browser owns the Playwright lifecycle: one driver per run, one fresh
// session (browser context plus page) per scenario attempt.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/storefront-e2e/internal/artifacts"
	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/obs"
)

// Driver holds a running Playwright and a launched browser.
type Driver struct {
	profile *config.Profile
	store   artifacts.Store
	runID   string
	log     *slog.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// Launch starts Playwright and the profile's browser. Failures carry
// errs.Unavailable so callers can skip instead of fail.
func Launch(p *config.Profile, store artifacts.Store, runID string) (*Driver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "playwright not available", err)
	}

	var bt playwright.BrowserType
	switch p.Browser {
	case "", "chromium":
		bt = pw.Chromium
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, errs.Newf(errs.InvalidConfiguration, "unknown browser %q", p.Browser)
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(p.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errs.Wrap(errs.Unavailable, "could not launch browser", err)
	}

	d := &Driver{
		profile: p,
		store:   store,
		runID:   runID,
		log:     obs.Pkg("browser"),
		pw:      pw,
		browser: b,
	}
	d.log.Info("browser_launched", "browser", bt.Name(), "headless", p.Headless, "version", b.Version())
	return d, nil
}

// Profile returns the configuration the driver was launched with.
func (d *Driver) Profile() *config.Profile {
	return d.profile
}

// Close shuts the browser and Playwright down. Safe to call twice.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			firstErr = fmt.Errorf("close browser: %w", err)
		}
		d.browser = nil
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop playwright: %w", err)
		}
		d.pw = nil
	}
	return firstErr
}

// NewSession opens an isolated browser context for one scenario attempt.
func (d *Driver) NewSession(ctx context.Context, name string) (*Session, error) {
	d.mu.Lock()
	b := d.browser
	d.mu.Unlock()
	if b == nil {
		return nil, errs.New(errs.Unavailable, "browser is closed")
	}
	return newSession(ctx, b, d.profile, d.store, d.runID, name)
}
