package bdd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/report"
	"github.com/kuitang/storefront-e2e/internal/scenario"
	"github.com/kuitang/storefront-e2e/internal/steps"
)

// Runner executes scenario refs one godog suite at a time.
type Runner struct {
	// Retries is how many extra attempts a failing scenario gets.
	Retries int
	NewEnv  scenario.Factory
	// Tags is passed to godog so outline rows are filtered by their own tags.
	Tags   string
	Report *report.Report

	// Output receives godog's formatter output; discarded when nil.
	Output io.Writer
	Format string

	log *slog.Logger
}

// NewRunner returns a runner using the pretty formatter.
func NewRunner(retries int, factory scenario.Factory, tags string, rep *report.Report) *Runner {
	return &Runner{
		Retries: retries,
		NewEnv:  factory,
		Tags:    tags,
		Report:  rep,
		Format:  "pretty",
		log:     obs.Pkg("bdd"),
	}
}

type attemptOutcome struct {
	step      string
	err       error
	skip      bool
	ran       int
	artifacts []string
	pageErrs  []string
}

// Run executes every ref whose tags match r.Tags, in order.
func (r *Runner) Run(ctx context.Context, refs []ScenarioRef) []report.Result {
	selected := Filter(refs, r.Tags)
	results := make([]report.Result, 0, len(selected))
	for _, ref := range selected {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.RunScenario(ctx, ref))
	}
	return results
}

// RunScenario executes ref until it passes or retries run out.
func (r *Runner) RunScenario(ctx context.Context, ref ScenarioRef) report.Result {
	if r.log == nil {
		r.log = obs.Pkg("bdd")
	}
	start := time.Now()
	res := report.Result{Name: ref.Name, Feature: ref.Feature, Tags: ref.Tags}

	var last attemptOutcome
	for attempt := 1; attempt <= r.Retries+1; attempt++ {
		res.Attempts = attempt
		actx := obs.WithCorrelation(ctx, obs.Correlation{Scenario: ref.Name, Attempt: attempt})
		last = r.attempt(actx, ref)
		res.Artifacts = append(res.Artifacts, last.artifacts...)
		res.PageErrors = last.pageErrs

		if last.skip {
			res.Status = report.Skipped
			break
		}
		if last.err == nil {
			res.Status = report.Passed
			if attempt > 1 {
				res.Status = report.Flaky
			}
			break
		}
		res.Status = report.Failed
		obs.From(actx).Warn("scenario_attempt_failed",
			"location", ref.Location(),
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
		"scenario", ref.Name,
		"location", ref.Location(),
		"status", string(res.Status),
		"attempts", res.Attempts,
		"dur_ms", res.Duration.Milliseconds(),
	)
	if r.Report != nil {
		r.Report.Add(res)
	}
	return res
}

func (r *Runner) attempt(ctx context.Context, ref ScenarioRef) attemptOutcome {
	var (
		mu       sync.Mutex
		outcomes []steps.Outcome
		envErr   error
	)
	deps := steps.Deps{
		NewEnv: func(ctx context.Context, name string) (*scenario.Env, error) {
			env, err := r.NewEnv(ctx, name)
			if err != nil {
				mu.Lock()
				envErr = err
				mu.Unlock()
			}
			return env, err
		},
		OnFinish: func(o steps.Outcome) {
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
		},
	}

	format := r.Format
	if format == "" {
		format = "pretty"
	}
	var buf bytes.Buffer
	suite := godog.TestSuite{
		Name:                ref.Name,
		ScenarioInitializer: func(sc *godog.ScenarioContext) { steps.Register(sc, deps) },
		Options: &godog.Options{
			Format:         format,
			Output:         &buf,
			Paths:          []string{ref.Location()},
			Tags:           r.Tags,
			Strict:         true,
			NoColors:       true,
			Concurrency:    1,
			DefaultContext: ctx,
		},
	}
	status := suite.Run()
	if r.Output != nil {
		_, _ = r.Output.Write(buf.Bytes())
	}

	mu.Lock()
	defer mu.Unlock()
	out := attemptOutcome{ran: len(outcomes)}
	for _, o := range outcomes {
		out.artifacts = append(out.artifacts, o.Artifacts...)
		out.pageErrs = append(out.pageErrs, o.PageErrors...)
		if o.Err != nil && out.err == nil {
			out.step, out.err = o.FailedStep, o.Err
		}
	}
	if errs.Is(envErr, errs.Unavailable) {
		out.skip, out.err = true, envErr
		return out
	}
	if out.err == nil && envErr != nil {
		out.err = envErr
	}
	if out.err == nil && status != 0 {
		out.err = errs.Newf(errs.InvalidConfiguration, "godog exited with status %d: %s", status, tail(buf.String(), 5))
	}
	if out.err == nil && out.ran == 0 {
		out.skip = true
	}
	return out
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
