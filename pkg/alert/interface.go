// Package alert delivers review notifications to project participants.
// Delivery is best-effort: a failed mail never fails the workflow operation
// that triggered it.
package alert

import "context"

// Mailer sends one message to one recipient address.
type Mailer interface {
	SendMessageTo(ctx context.Context, email, subject, body string) error
}

// Noop discards every message; used when SMTP is not configured.
type Noop struct{}

func (Noop) SendMessageTo(_ context.Context, _, _, _ string) error { return nil }
