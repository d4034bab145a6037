package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/leafsk/gmeetings/platform"
	"github.com/leafsk/gmeetings/telemetry"
)

// RetryPolicy bounds the exponential backoff around one liveness probe.
type RetryPolicy struct {
	MaxRetries int // retries after the first attempt
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryPolicy matches the monitor's production settings: up to 3
// retries at 1s, 2s, 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2}
}

// ProbeWithRetry runs probe under the policy, retrying only transient errors.
// A verdict returned with a nil error, valid or not, is final for this check.
// When every attempt errors the result is an invalid verdict carrying the last
// error, so the caller treats the platform as unreachable rather than the
// stream as offline.
func ProbeWithRetry(ctx context.Context, pol RetryPolicy, probe func(context.Context) (platform.Verdict, error)) platform.Verdict {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = pol.BaseDelay
	bo.MaxInterval = pol.MaxDelay
	bo.Multiplier = pol.Multiplier
	bo.RandomizationFactor = 0

	attempt := 0
	v, err := backoff.Retry(ctx, func() (platform.Verdict, error) {
		attempt++
		if attempt > 1 {
			telemetry.CountRetry()
		}
		return probe(ctx)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(pol.MaxRetries+1)))
	if err != nil {
		return platform.Verdict{IsValid: false, Err: fmt.Sprintf("exhausted retries: %v", err)}
	}
	return v
}
