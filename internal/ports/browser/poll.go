package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultPollInterval is how often a pending condition is re-evaluated.
const DefaultPollInterval = 250 * time.Millisecond

// Condition is evaluated repeatedly by Poll. A returned error aborts the wait.
type Condition func() (bool, error)

var errPending = errors.New("condition not met")

// Poll re-evaluates cond every interval until it holds, it fails, or timeout elapses.
// Expiry is reported as ErrTimeout.
func Poll(ctx context.Context, timeout, interval time.Duration, cond Condition) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	start := time.Now()
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		ok, err := cond()
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if !ok {
			return struct{}{}, errPending
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxElapsedTime(timeout),
	)
	if errors.Is(err, errPending) {
		return fmt.Errorf("%w after %s", ErrTimeout, time.Since(start).Round(time.Millisecond))
	}
	return err
}
