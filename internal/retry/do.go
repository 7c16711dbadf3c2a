package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// rateLimitMultiplier stretches delays for rate-limited failures.
const rateLimitMultiplier = 3

// Do runs fn until it succeeds, returns a non-transient error, or the policy
// runs out of retries. attempt is 0 for the first run. The last error is
// returned unchanged so callers can classify it.
func Do(ctx context.Context, p Policy, fn func(attempt int) error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if !errors.IsTransient(err) || attempt == p.MaxRetries {
			return err
		}

		delay := p.Delay(attempt + 1)
		if ce, ok := errors.AsClassified(err); ok && ce.RetryStrategy() == errors.RetryRateLimit {
			delay *= rateLimitMultiplier
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}
