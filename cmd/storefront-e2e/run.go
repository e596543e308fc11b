package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuitang/storefront-e2e/internal/apiclient"
	"github.com/kuitang/storefront-e2e/internal/artifacts"
	"github.com/kuitang/storefront-e2e/internal/bdd"
	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/notify"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/report"
	"github.com/kuitang/storefront-e2e/internal/scenario"
	"github.com/kuitang/storefront-e2e/internal/steps"
)

type runOptions struct {
	*rootOptions
	Tags            string
	DryRun          bool
	Format          string
	SkipUnavailable bool
}

// launchBrowser is swapped in tests.
var launchBrowser = browser.Launch

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run feature scenarios in a browser",
		Long: `Discovers .feature files under the given paths (the profile's feature
paths when none are given), rejects unbound steps, then runs every selected
scenario in a fresh browser context with whole-scenario retries.

Example:
  storefront-e2e run --profile qa --tags '@smoke && ~@wip'
  storefront-e2e run features/login.feature --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatures(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Tags, "tags", "t", "", "godog tag expression; E2E_TAGS when empty")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "list selected scenarios and check step bindings without a browser")
	cmd.Flags().StringVar(&opts.Format, "format", "pretty", "godog formatter for --verbose output")
	cmd.Flags().BoolVar(&opts.SkipUnavailable, "skip-unavailable", false, "exit 0 with scenarios skipped when the browser cannot start")

	return cmd
}

func runFeatures(ctx context.Context, opts *runOptions, paths []string, stdout io.Writer) error {
	p := opts.profile
	if len(paths) == 0 {
		paths = p.FeaturePaths
	}
	tags := opts.Tags
	if tags == "" {
		tags = p.Tags
	}

	refs, err := bdd.Discover(paths)
	if err != nil {
		return err
	}
	refs = bdd.Filter(refs, tags)
	if err := bdd.CheckUndefined(refs, steps.Phrases()); err != nil {
		return err
	}

	if opts.DryRun {
		rows := [][]string{{"scenario", "location", "examples"}}
		for _, ref := range refs {
			rows = append(rows, []string{ref.Describe(), ref.Location(), itoa(ref.Examples)})
		}
		obs.Table(rows)
		return nil
	}

	runID := newRunID()
	rep := report.New(runID, p.Name, time.Now())

	store, err := artifacts.NewStore(ctx, p)
	if err != nil {
		return err
	}
	api := apiclient.New(p)
	defer api.Close()

	factory, closeDriver, launchErr := launchFactory(p, store, runID, api)
	defer closeDriver()

	runner := bdd.NewRunner(p.RetriesForMode(), factory, tags, rep)
	runner.Format = opts.Format
	if opts.Verbose {
		runner.Output = stdout
	}
	runner.Run(ctx, refs)

	if err := finish(ctx, p, rep); err != nil {
		return err
	}
	if launchErr != nil && len(refs) > 0 && !opts.SkipUnavailable {
		return errs.Wrap(errs.Unavailable, fmt.Sprintf("browser unavailable, %d scenario(s) not run", len(refs)), launchErr)
	}
	return nil
}

// launchFactory starts the browser once per run. When the browser cannot start,
// every scenario gets the launch error, which marks them skipped, and the
// error is returned for the exit code.
func launchFactory(p *config.Profile, store artifacts.Store, runID string, api *apiclient.Client) (scenario.Factory, func(), error) {
	d, err := launchBrowser(p, store, runID)
	if err != nil {
		obs.Pkg("cli").Warn("browser_unavailable", "error", err)
		return func(context.Context, string) (*scenario.Env, error) { return nil, err }, func() {}, err
	}
	return scenario.BrowserFactory(d, api), func() { _ = d.Close() }, nil
}

// finish prints and stores the report, notifies on failures and converts
// failures into an error.
func finish(ctx context.Context, p *config.Profile, rep *report.Report) error {
	rep.Finish(time.Now())
	obs.Table(rep.Rows())

	log := obs.Pkg("cli")
	if p.ReportJSON {
		path, err := rep.WriteJSON(p.ReportDir)
		if err != nil {
			log.Warn("report_write_failed", "error", err)
		} else {
			obs.Log("report written to " + path)
		}
	}
	if _, err := notify.New(p).Notify(ctx, rep); err != nil {
		log.Warn("notify_failed", "error", err)
	}

	s := rep.Summary()
	log.Info("run_finished", "run_id", rep.RunID, "total", s.Total, "passed", s.Passed, "failed", s.Failed, "flaky", s.Flaky, "skipped", s.Skipped)
	if rep.HasFailures() {
		return &failuresError{failed: s.Failed}
	}
	return nil
}
