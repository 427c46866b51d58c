package notify

import "context"

// Notifier delivers an HTML notification body. Transports own addressing and subject.
type Notifier interface {
	Send(ctx context.Context, htmlBody string) error
}
