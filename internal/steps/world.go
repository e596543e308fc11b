// Package steps binds Gherkin phrases to page-object actions. Every scenario
// gets its own World, so nothing leaks between scenarios or retries.
package steps

import (
	"context"
	"sort"
	"time"

	"github.com/cucumber/godog"

	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/pages"
	"github.com/kuitang/storefront-e2e/internal/scenario"
)

// Deps are what bindings need from the outside.
type Deps struct {
	NewEnv scenario.Factory
	// OnFinish receives the outcome of every scenario once its environment is closed.
	OnFinish func(Outcome)
}

// Outcome describes one finished scenario run.
type Outcome struct {
	Scenario   string
	FailedStep string
	Err        error
	Artifacts  []string
	PageErrors []string
}

// World is the per-scenario state shared by bindings.
type World struct {
	env *scenario.Env

	scenario   string
	failedStep string

	// credentials registered during this scenario
	email    string
	password string

	loadTime  time.Duration
	viewports int
}

type binding struct {
	pattern string
	fn      any
}

func (w *World) bindings() []binding {
	var all []binding
	all = append(all, w.homeBindings()...)
	all = append(all, w.loginBindings()...)
	all = append(all, w.shopBindings()...)
	return all
}

// Phrases lists every bound pattern, sorted.
func Phrases() []string {
	var out []string
	for _, b := range (&World{}).bindings() {
		out = append(out, b.pattern)
	}
	sort.Strings(out)
	return out
}

// Register binds every phrase on sc with a fresh World.
func Register(sc *godog.ScenarioContext, deps Deps) {
	w := &World{}
	for _, b := range w.bindings() {
		sc.Step(b.pattern, b.fn)
	}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		w.scenario = s.Name
		env, err := deps.NewEnv(ctx, s.Name)
		if err != nil {
			return ctx, err
		}
		w.env = env
		return obs.WithCorrelation(ctx, obs.Correlation{Scenario: s.Name}), nil
	})

	sc.StepContext().After(func(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
		if status == godog.StepFailed && w.failedStep == "" {
			w.failedStep = st.Text
			obs.From(ctx).Warn("step_failed", "step", st.Text, "code", string(errs.CodeOf(err)), "error", err)
		}
		return ctx, nil
	})

	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		out := Outcome{Scenario: s.Name, FailedStep: w.failedStep, Err: err}
		if w.env != nil {
			if err == nil && w.env.Session != nil {
				out.PageErrors = w.env.Session.UnexpectedPageErrors()
				if perr := w.env.Session.CheckPageErrors(); perr != nil {
					out.Err, out.FailedStep = perr, "page script errors"
				}
			}
			out.Artifacts = w.env.Close(ctx, s.Name, out.Err != nil)
		}
		if deps.OnFinish != nil {
			deps.OnFinish(out)
		}
		return ctx, out.Err
	})
}

// pages returns the page set or fails when the scenario has no browser.
func (w *World) pages() (*pages.Set, error) {
	if w.env == nil || w.env.Pages == nil {
		return nil, errs.New(errs.InvalidConfiguration, "step needs a browser session")
	}
	return w.env.Pages, nil
}

// with runs fn against the page set.
func (w *World) with(fn func(p *pages.Set) error) error {
	p, err := w.pages()
	if err != nil {
		return err
	}
	return fn(p)
}

// rememberAccount records credentials and deletes the account through the
// API when the scenario ends.
func (w *World) rememberAccount(email, password string) {
	w.email, w.password = email, password
	if w.env == nil || w.env.API == nil {
		return
	}
	w.env.Defer(func(ctx context.Context) error {
		_, err := w.env.API.DeleteAccount(ctx, email, password)
		return err
	})
}
