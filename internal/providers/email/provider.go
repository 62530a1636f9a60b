package email

import "context"

// Provider sends outbound email. The engine treats it as fire-and-forget:
// errors are logged by the caller, never retried inline.
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}
