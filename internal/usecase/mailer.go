package usecase

import "context"

// Mailer delivers notification emails. Every call site treats delivery as
// best effort: a failed send is logged and never fails the operation that
// triggered it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NoopMailer is used when email is disabled in the configuration.
type NoopMailer struct{}

func (NoopMailer) Send(ctx context.Context, to, subject, body string) error {
	return nil
}
