package scenario

import (
	"context"

	"github.com/kuitang/storefront-e2e/internal/apiclient"
	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/pages"
)

// Env is everything one attempt can touch. Session and Pages are nil for
// API-only scenarios.
type Env struct {
	Profile *config.Profile
	Session *browser.Session
	Pages   *pages.Set
	API     *apiclient.Client

	cleanups []func(ctx context.Context) error
}

// Defer registers fn to run when the attempt ends, pass or fail. Cleanups run
// last-registered first, before the session closes.
func (e *Env) Defer(fn func(ctx context.Context) error) {
	e.cleanups = append(e.cleanups, fn)
}

func (e *Env) runCleanups(ctx context.Context) {
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		if err := e.cleanups[i](ctx); err != nil {
			obs.From(ctx).Warn("scenario_cleanup_error", "error", err)
		}
	}
	e.cleanups = nil
}

// Factory builds a fresh Env for one attempt of the named scenario.
type Factory func(ctx context.Context, scenario string) (*Env, error)

// Close captures a failure screenshot when failed, runs deferred cleanups and
// closes the session. It returns the locations of stored artifacts.
func (e *Env) Close(ctx context.Context, scenario string, failed bool) []string {
	if failed && e.Session != nil {
		e.Session.CaptureFailure(ctx, scenario)
	}
	e.runCleanups(context.WithoutCancel(ctx))
	if e.Session == nil {
		return nil
	}
	if err := e.Session.Close(ctx); err != nil {
		obs.From(ctx).Warn("session_close_error", "error", err)
	}
	return e.Session.Artifacts()
}

// BrowserFactory opens a new session and page set on d for every attempt.
func BrowserFactory(d *browser.Driver, api *apiclient.Client) Factory {
	return func(ctx context.Context, name string) (*Env, error) {
		s, err := d.NewSession(ctx, name)
		if err != nil {
			return nil, err
		}
		return &Env{Profile: d.Profile(), Session: s, Pages: pages.NewSet(s), API: api}, nil
	}
}

// APIFactory serves API-only scenarios.
func APIFactory(p *config.Profile, api *apiclient.Client) Factory {
	return func(context.Context, string) (*Env, error) {
		return &Env{Profile: p, API: api}, nil
	}
}
