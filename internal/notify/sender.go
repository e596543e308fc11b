// Package notify emails a run summary when a run has failures.
package notify

import (
	"context"
	"sync"

	"github.com/resend/resend-go/v3"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender creates a sender authenticated with apiKey.
func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

func (r *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return errs.Wrap(errs.Unavailable, "resend: failed to send email", err)
	}
	return nil
}

// MockSender captures messages for tests.
type MockSender struct {
	mu       sync.Mutex
	Messages []Message
	// Err, when set, is returned from every Send.
	Err error
}

func (m *MockSender) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// Last returns the most recent message, or the zero value.
func (m *MockSender) Last() Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		return Message{}
	}
	return m.Messages[len(m.Messages)-1]
}

// Count returns the number of captured messages.
func (m *MockSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}
