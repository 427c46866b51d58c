package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogNotifier prints the composed message instead of sending it.
type LogNotifier struct {
	env Envelope
	log zerolog.Logger
	now func() time.Time
}

func NewLogNotifier(env Envelope, log zerolog.Logger) *LogNotifier {
	return &LogNotifier{env: env, log: log, now: time.Now}
}

func (n *LogNotifier) Send(_ context.Context, htmlBody string) error {
	n.log.Info().Msgf("This email notification would have been sent:\n%s", Compose(n.env, htmlBody, n.now()))
	return nil
}
