package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Breaker stops calling a failing transport after consecutive failures.
type Breaker struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker
	log  zerolog.Logger
}

// NewBreaker trips after maxFailures consecutive send errors and stays open
// for the rest of a short-lived run.
func NewBreaker(next Notifier, maxFailures uint32, log zerolog.Logger) *Breaker {
	if maxFailures == 0 {
		maxFailures = 1
	}
	settings := gobreaker.Settings{
		Name:        "notifier",
		MaxRequests: 1,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings), log: log}
}

func (b *Breaker) Send(ctx context.Context, htmlBody string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, htmlBody)
	})
	if errors.Is(err, gobreaker.ErrOpenState) {
		b.log.Debug().Msg("Circuit breaker is open; skipping notification")
	}
	return err
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
