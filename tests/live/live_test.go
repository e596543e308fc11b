// Package live runs the suites against the real storefront. Tests skip unless
// E2E_LIVE is set, and browser tests skip when Playwright is not installed.
package live

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/storefront-e2e/internal/apiclient"
	"github.com/kuitang/storefront-e2e/internal/artifacts"
	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/report"
	"github.com/kuitang/storefront-e2e/internal/scenario"
)

var (
	runID = "live-" + time.Now().UTC().Format("20060102-150405")

	setupOnce  sync.Once
	profile    *config.Profile
	profileErr error
	api        *apiclient.Client
	rep        *report.Report

	driverOnce sync.Once
	driver     *browser.Driver
	driverErr  error
)

func TestMain(m *testing.M) {
	code := m.Run()

	if driver != nil {
		_ = driver.Close()
	}
	if api != nil {
		api.Close()
	}
	if rep != nil && len(rep.Results()) > 0 {
		rep.Finish(time.Now())
		obs.Table(rep.Rows())
		if profile.ReportJSON {
			if path, err := rep.WriteJSON(profile.ReportDir); err == nil {
				fmt.Println("report written to", path)
			}
		}
	}
	os.Exit(code)
}

// requireLive skips unless live runs are enabled and returns the shared profile.
func requireLive(t *testing.T) *config.Profile {
	t.Helper()
	if testing.Short() {
		t.Skip("live storefront tests are skipped in -short mode")
	}
	if os.Getenv("E2E_LIVE") == "" {
		t.Skip("set E2E_LIVE=1 to run against the storefront")
	}
	setupOnce.Do(func() {
		profile, profileErr = config.Load("")
		if profileErr != nil {
			return
		}
		obs.Init(obs.Options{Level: obs.ParseLevel(profile.LogLevel), Tag: profile.LogTag})
		api = apiclient.New(profile)
		rep = report.New(runID, profile.Name, time.Now())
	})
	require.NoError(t, profileErr)
	return profile
}

func apiRunner(t *testing.T) *scenario.Runner {
	t.Helper()
	p := requireLive(t)
	return scenario.NewRunner(p.RetriesForMode(), scenario.APIFactory(p, api), rep)
}

// browserFactory launches the shared browser on first use.
func browserFactory(t *testing.T) scenario.Factory {
	t.Helper()
	p := requireLive(t)
	driverOnce.Do(func() {
		store, err := artifacts.NewStore(context.Background(), p)
		if err != nil {
			driverErr = err
			return
		}
		driver, driverErr = browser.Launch(p, store, runID)
	})
	if errs.Is(driverErr, errs.Unavailable) {
		t.Skip("Playwright not available:", driverErr)
	}
	require.NoError(t, driverErr)
	return scenario.BrowserFactory(driver, api)
}
