// Package scenario runs imperative scenarios: ordered, immutable step
// descriptors executed against a fresh environment per attempt, with the
// whole scenario retried on failure.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/report"
)

// Step is one named action.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Do is shorthand for a Step that ignores its context.
func Do(name string, fn func() error) Step {
	return Step{Name: name, Run: func(context.Context) error { return fn() }}
}

// Scenario builds its steps against the environment of each attempt, so no
// state leaks from a failed attempt into the retry.
type Scenario struct {
	Name  string
	Tags  []string
	Steps func(env *Env) []Step
}

// Runner executes scenarios.
type Runner struct {
	// Retries is how many extra attempts a failing scenario gets.
	Retries int
	NewEnv  Factory
	// Report receives every result when set.
	Report *report.Report

	log *slog.Logger
}

// NewRunner returns a runner with retries extra attempts.
func NewRunner(retries int, factory Factory, rep *report.Report) *Runner {
	return &Runner{Retries: retries, NewEnv: factory, Report: rep, log: obs.Pkg("scenario")}
}

type attemptOutcome struct {
	step      string
	err       error
	artifacts []string
	pageErrs  []string
}

// Run executes sc until it passes or retries run out.
func (r *Runner) Run(ctx context.Context, sc Scenario) report.Result {
	if r.log == nil {
		r.log = obs.Pkg("scenario")
	}
	start := time.Now()
	res := report.Result{Name: sc.Name, Tags: sc.Tags}

	var last attemptOutcome
	for attempt := 1; attempt <= r.Retries+1; attempt++ {
		res.Attempts = attempt
		actx := obs.WithCorrelation(ctx, obs.Correlation{Scenario: sc.Name, Attempt: attempt})
		last = r.attempt(actx, sc)
		res.Artifacts = append(res.Artifacts, last.artifacts...)
		res.PageErrors = last.pageErrs

		if last.err == nil {
			res.Status = report.Passed
			if attempt > 1 {
				res.Status = report.Flaky
			}
			break
		}
		if errs.Is(last.err, errs.Unavailable) && last.step == "" {
			res.Status = report.Skipped
			break
		}
		res.Status = report.Failed
		obs.From(actx).Warn("scenario_attempt_failed",
			"step", last.step,
			"code", string(errs.CodeOf(last.err)),
			"error", last.err.Error(),
		)
		if ctx.Err() != nil {
			break
		}
	}

	if last.err != nil {
		res.FailedStep = last.step
		res.Error = last.err.Error()
		res.ErrorCode = string(errs.CodeOf(last.err))
	}
	res.Duration = time.Since(start)
	r.log.Info("scenario_finished",
		"scenario", sc.Name,
		"status", string(res.Status),
		"attempts", res.Attempts,
		"dur_ms", res.Duration.Milliseconds(),
	)
	if r.Report != nil {
		r.Report.Add(res)
	}
	return res
}

func (r *Runner) attempt(ctx context.Context, sc Scenario) (out attemptOutcome) {
	env, err := r.NewEnv(ctx, sc.Name)
	if err != nil {
		out.err = err
		return out
	}
	defer func() {
		out.artifacts = env.Close(ctx, sc.Name, out.err != nil)
	}()

	for _, step := range sc.Steps(env) {
		if err := ctx.Err(); err != nil {
			out.step, out.err = step.Name, errs.Wrap(errs.Timeout, "scenario abandoned", err)
			return out
		}
		sctx := obs.WithCorrelation(ctx, obs.Correlation{Step: step.Name})
		obs.From(sctx).Debug("step_start")
		if err := runStep(sctx, step); err != nil {
			out.step, out.err = step.Name, err
			return out
		}
	}
	if env.Session != nil {
		out.pageErrs = env.Session.UnexpectedPageErrors()
		if err := env.Session.CheckPageErrors(); err != nil {
			out.step, out.err = "page script errors", err
		}
	}
	return out
}

// runStep converts a panicking step into an Internal error.
func runStep(ctx context.Context, step Step) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errs.Newf(errs.Internal, "step %q panicked: %v", step.Name, p)
		}
	}()
	return step.Run(ctx)
}

// RunT runs sc inside a Go test: skipped scenarios skip the test, failed ones fail it.
func RunT(t *testing.T, r *Runner, sc Scenario) report.Result {
	t.Helper()
	res := r.Run(t.Context(), sc)
	switch res.Status {
	case report.Skipped:
		t.Skip("scenario skipped:", res.Error)
	case report.Failed:
		t.Fatalf("%s failed after %d attempt(s) at step %q: %s", sc.Name, res.Attempts, res.FailedStep, res.Error)
	case report.Flaky:
		t.Logf("%s passed after %d attempts", sc.Name, res.Attempts)
	}
	return res
}

// RunAll runs every scenario in order and returns their results.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []report.Result {
	results := make([]report.Result, 0, len(scenarios))
	for _, sc := range scenarios {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.Run(ctx, sc))
	}
	return results
}

// Describe returns "name [tags]" for listings.
func (sc Scenario) Describe() string {
	if len(sc.Tags) == 0 {
		return sc.Name
	}
	return fmt.Sprintf("%s %v", sc.Name, sc.Tags)
}
