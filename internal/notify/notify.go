package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/report"
)

// Notifier sends a failure summary for finished runs.
type Notifier struct {
	Sender Sender
	From   string
	To     []string

	log *slog.Logger
}

// New returns a Notifier for p, or nil when p has no recipient configured.
func New(p *config.Profile) *Notifier {
	if p.NotifyTo == "" || p.ResendAPIKey == "" {
		return nil
	}
	return &Notifier{
		Sender: NewResendSender(p.ResendAPIKey),
		From:   p.NotifyFrom,
		To:     splitRecipients(p.NotifyTo),
		log:    obs.Pkg("notify"),
	}
}

func splitRecipients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Subject summarizes rep in one line.
func Subject(rep *report.Report) string {
	s := rep.Summary()
	return fmt.Sprintf("[storefront-e2e] %s: %d of %d scenarios failed", rep.Profile, s.Failed, s.Total)
}

// Notify emails rep when it has failures. It reports whether a message was sent.
// A nil Notifier never sends.
func (n *Notifier) Notify(ctx context.Context, rep *report.Report) (bool, error) {
	if n == nil || !rep.HasFailures() {
		return false, nil
	}
	if n.log == nil {
		n.log = obs.Pkg("notify")
	}
	md := rep.Markdown()
	msg := Message{
		From:    n.From,
		To:      n.To,
		Subject: Subject(rep),
		HTML:    RenderHTML(md),
		Text:    md,
	}
	if err := n.Sender.Send(ctx, msg); err != nil {
		n.log.Warn("notify_failed", "to", strings.Join(n.To, ","), "error", err)
		return false, err
	}
	n.log.Info("notify_sent", "to", strings.Join(n.To, ","), "subject", msg.Subject)
	return true, nil
}
