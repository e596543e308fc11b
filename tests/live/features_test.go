package live

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/storefront-e2e/internal/bdd"
	"github.com/kuitang/storefront-e2e/internal/report"
	"github.com/kuitang/storefront-e2e/internal/steps"
)

func TestFeatures(t *testing.T) {
	p := requireLive(t)
	factory := browserFactory(t)

	refs, err := bdd.Discover([]string{filepath.Join("..", "..", "features")})
	require.NoError(t, err)
	refs = bdd.Filter(refs, p.Tags)
	require.NoError(t, bdd.CheckUndefined(refs, steps.Phrases()))

	runner := bdd.NewRunner(p.RetriesForMode(), factory, p.Tags, rep)
	if testing.Verbose() {
		runner.Output = os.Stdout
	}
	for _, ref := range refs {
		t.Run(ref.Feature+"/"+ref.Name, func(t *testing.T) {
			res := runner.RunScenario(t.Context(), ref)
			switch res.Status {
			case report.Skipped:
				t.Skip("scenario skipped:", res.Error)
			case report.Failed:
				t.Fatalf("%s failed after %d attempt(s) at step %q: %s", ref.Location(), res.Attempts, res.FailedStep, res.Error)
			case report.Flaky:
				t.Logf("%s passed after %d attempts", ref.Location(), res.Attempts)
			}
		})
	}
}
