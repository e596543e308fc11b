// Package report collects scenario results for one run and renders them as
// JSON, Markdown and console tables.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Status is a scenario's final outcome.
type Status string

const (
	Passed Status = "passed"
	Failed Status = "failed"
	// Flaky scenarios failed at least once and then passed on retry.
	Flaky   Status = "flaky"
	Skipped Status = "skipped"
)

// Result is one scenario's outcome across all of its attempts.
type Result struct {
	Name       string        `json:"name"`
	Feature    string        `json:"feature,omitempty"`
	Tags       []string      `json:"tags,omitempty"`
	Status     Status        `json:"status"`
	Attempts   int           `json:"attempts"`
	FailedStep string        `json:"failedStep,omitempty"`
	Error      string        `json:"error,omitempty"`
	ErrorCode  string        `json:"errorCode,omitempty"`
	Duration   time.Duration `json:"durationNs"`
	Artifacts  []string      `json:"artifacts,omitempty"`
	PageErrors []string      `json:"pageErrors,omitempty"`
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Flaky   int `json:"flaky"`
	Skipped int `json:"skipped"`
}

// Report is safe for concurrent Add.
type Report struct {
	RunID    string    `json:"runId"`
	Profile  string    `json:"profile"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	mu      sync.Mutex
	results []Result
}

// New starts a report.
func New(runID, profile string, started time.Time) *Report {
	return &Report{RunID: runID, Profile: profile, Started: started.UTC()}
}

// Add records a result.
func (r *Report) Add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Finish stamps the end time.
func (r *Report) Finish(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = at.UTC()
}

// Results returns a copy of the recorded results in insertion order.
func (r *Report) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Summary tallies the results.
func (r *Report) Summary() Summary {
	var s Summary
	for _, res := range r.Results() {
		s.Total++
		switch res.Status {
		case Passed:
			s.Passed++
		case Failed:
			s.Failed++
		case Flaky:
			s.Flaky++
		case Skipped:
			s.Skipped++
		}
	}
	return s
}

// HasFailures reports whether any scenario failed permanently.
func (r *Report) HasFailures() bool {
	return r.Summary().Failed > 0
}

type jsonReport struct {
	RunID    string    `json:"runId"`
	Profile  string    `json:"profile"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Summary  Summary   `json:"summary"`
	Results  []Result  `json:"results"`
}

// MarshalJSON includes the summary alongside the results.
func (r *Report) MarshalJSON() ([]byte, error) {
	r.mu.Lock()
	out := jsonReport{
		RunID:    r.RunID,
		Profile:  r.Profile,
		Started:  r.Started,
		Finished: r.Finished,
		Results:  append([]Result(nil), r.results...),
	}
	r.mu.Unlock()
	out.Summary = r.Summary()
	return json.MarshalIndent(out, "", "  ")
}

// WriteJSON writes report-<runID>.json into dir and returns its path.
func (r *Report) WriteJSON(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	data, err := r.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("report: marshal: %w", err)
	}
	path := filepath.Join(dir, "report-"+r.RunID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("report: write: %w", err)
	}
	return path, nil
}

// Rows renders the results for obs.Table, failures first.
func (r *Report) Rows() [][]string {
	results := r.Results()
	sort.SliceStable(results, func(i, j int) bool {
		return statusRank(results[i].Status) < statusRank(results[j].Status)
	})
	rows := [][]string{{"scenario", "status", "attempts", "duration"}}
	for _, res := range results {
		rows = append(rows, []string{
			res.Name,
			string(res.Status),
			strconv.Itoa(res.Attempts),
			res.Duration.Round(time.Millisecond).String(),
		})
	}
	return rows
}

func statusRank(s Status) int {
	switch s {
	case Failed:
		return 0
	case Flaky:
		return 1
	case Passed:
		return 2
	default:
		return 3
	}
}

// Markdown renders a summary suitable for email or a CI comment.
func (r *Report) Markdown() string {
	s := r.Summary()
	var b strings.Builder
	fmt.Fprintf(&b, "# Storefront e2e run %s\n\n", r.RunID)
	fmt.Fprintf(&b, "Profile **%s**, started %s", r.Profile, r.Started.Format(time.RFC3339))
	if !r.Finished.IsZero() {
		fmt.Fprintf(&b, ", took %s", r.Finished.Sub(r.Started).Round(time.Second))
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "| total | passed | failed | flaky | skipped |\n|---|---|---|---|---|\n| %d | %d | %d | %d | %d |\n",
		s.Total, s.Passed, s.Failed, s.Flaky, s.Skipped)

	var failed, flaky []Result
	for _, res := range r.Results() {
		switch res.Status {
		case Failed:
			failed = append(failed, res)
		case Flaky:
			flaky = append(flaky, res)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\n## Failures\n")
		for _, res := range failed {
			fmt.Fprintf(&b, "\n### %s\n\n", res.Name)
			if res.FailedStep != "" {
				fmt.Fprintf(&b, "- step: `%s`\n", res.FailedStep)
			}
			fmt.Fprintf(&b, "- attempts: %d\n", res.Attempts)
			if res.ErrorCode != "" {
				fmt.Fprintf(&b, "- code: `%s`\n", res.ErrorCode)
			}
			if res.Error != "" {
				fmt.Fprintf(&b, "\n```\n%s\n```\n", res.Error)
			}
			for _, a := range res.Artifacts {
				fmt.Fprintf(&b, "- artifact: %s\n", a)
			}
		}
	}
	if len(flaky) > 0 {
		b.WriteString("\n## Passed after retry\n\n")
		for _, res := range flaky {
			fmt.Fprintf(&b, "- %s (%d attempts)\n", res.Name, res.Attempts)
		}
	}
	return b.String()
}
