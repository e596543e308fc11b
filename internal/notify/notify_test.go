package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/report"
)

func failingReport() *report.Report {
	rep := report.New("run-7", "qa", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	rep.Add(report.Result{Name: "Home page smoke", Status: report.Passed, Attempts: 1})
	rep.Add(report.Result{
		Name:       "End-to-end journey",
		Status:     report.Failed,
		Attempts:   3,
		FailedStep: "add Blue Top to cart",
		ErrorCode:  "element_not_found",
		Error:      `<script>alert("x")</script> locator timed out`,
	})
	return rep
}

func testNotifier(m *MockSender) *Notifier {
	return &Notifier{Sender: m, From: "e2e@example.com", To: []string{"ops@example.com"}}
}

func TestNotify_SendsSanitizedSummaryOnFailure(t *testing.T) {
	t.Parallel()
	m := &MockSender{}
	sent, err := testNotifier(m).Notify(t.Context(), failingReport())
	require.NoError(t, err)
	assert.True(t, sent)
	require.Equal(t, 1, m.Count())

	msg := m.Last()
	assert.Equal(t, "[storefront-e2e] qa: 1 of 2 scenarios failed", msg.Subject)
	assert.Equal(t, []string{"ops@example.com"}, msg.To)
	assert.Contains(t, msg.HTML, "<table>")
	assert.Contains(t, msg.HTML, "End-to-end journey")
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.Text, "add Blue Top to cart")
}

func TestNotify_NothingToReport(t *testing.T) {
	t.Parallel()
	rep := report.New("run-8", "qa", time.Now())
	rep.Add(report.Result{Name: "ok", Status: report.Flaky, Attempts: 2})

	m := &MockSender{}
	sent, err := testNotifier(m).Notify(t.Context(), rep)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Zero(t, m.Count())

	var nilNotifier *Notifier
	sent, err = nilNotifier.Notify(t.Context(), failingReport())
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestNotify_SenderError(t *testing.T) {
	t.Parallel()
	m := &MockSender{Err: errs.New(errs.Unavailable, "resend down")}
	sent, err := testNotifier(m).Notify(t.Context(), failingReport())
	require.Error(t, err)
	assert.False(t, sent)
	assert.True(t, errs.Is(err, errs.Unavailable))
}

func TestNew_RequiresRecipientAndKey(t *testing.T) {
	t.Parallel()
	p, _ := config.Builtin("default")
	assert.Nil(t, New(&p))

	p.NotifyTo = "a@example.com, b@example.com"
	assert.Nil(t, New(&p))

	p.ResendAPIKey = "re_test"
	n := New(&p)
	require.NotNil(t, n)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, n.To)
	assert.Equal(t, p.NotifyFrom, n.From)
}

func TestRenderHTML_NeverEmitsScriptTags(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		body := rapid.StringMatching(`[A-Za-z0-9 .:/-]{0,40}`).Draw(t, "body")
		md := "# Title\n\n" + body + "\n\n<script>steal()</script>\n"
		out := RenderHTML(md)
		if strings.Contains(strings.ToLower(out), "<script") {
			t.Fatalf("script survived sanitizing: %q", out)
		}
		if !strings.Contains(out, "<h1") {
			t.Fatalf("heading missing: %q", out)
		}
	})
}
