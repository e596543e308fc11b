package report

import (
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var started = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleReport() *Report {
	r := New("run-42", "qa", started)
	r.Add(Result{Name: "Home page loads", Status: Passed, Attempts: 1, Duration: 1200 * time.Millisecond})
	r.Add(Result{
		Name:       "Complete user journey",
		Feature:    "e2e",
		Status:     Failed,
		Attempts:   3,
		FailedStep: "verify cart totals",
		Error:      "cart totals inconsistent:\n  - row 1 (Blue Top): total Rs. 900, expected Rs. 500 x 2 = Rs. 1000",
		ErrorCode:  "assertion_failed",
		Duration:   42 * time.Second,
		Artifacts:  []string{"artifacts/run-42/Complete user journey/Complete user journey - failed.png"},
	})
	r.Add(Result{Name: "Search for products", Status: Flaky, Attempts: 2, Duration: 3 * time.Second})
	r.Add(Result{Name: "Live only", Status: Skipped})
	r.Finish(started.Add(2 * time.Minute))
	return r
}

func TestSummary(t *testing.T) {
	t.Parallel()
	s := sampleReport().Summary()
	assert.Equal(t, Summary{Total: 4, Passed: 1, Failed: 1, Flaky: 1, Skipped: 1}, s)
	assert.True(t, sampleReport().HasFailures())
	assert.False(t, New("x", "dev", started).HasFailures())
}

func TestRows_FailuresFirst(t *testing.T) {
	t.Parallel()
	rows := sampleReport().Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"scenario", "status", "attempts", "duration"}, rows[0])
	assert.Equal(t, "Complete user journey", rows[1][0])
	assert.Equal(t, "flaky", rows[2][1])
	assert.Equal(t, "1.2s", rows[3][3])
}

func TestMarkdown_Golden(t *testing.T) {
	t.Parallel()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "summary", []byte(sampleReport().Markdown()))
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path, err := sampleReport().WriteJSON(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded struct {
		RunID   string   `json:"runId"`
		Summary Summary  `json:"summary"`
		Results []Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-42", decoded.RunID)
	assert.Equal(t, 1, decoded.Summary.Failed)
	require.Len(t, decoded.Results, 4)
	assert.Equal(t, "verify cart totals", decoded.Results[1].FailedStep)
}

func TestAdd_Concurrent(t *testing.T) {
	t.Parallel()
	r := New("run", "dev", started)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add(Result{Name: "s", Status: Passed, Attempts: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Summary().Passed)
}
