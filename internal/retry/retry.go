package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrRetry tells Blocking to call f again after the next backoff.
var ErrRetry = errors.New("retry")

// ErrExhausted is returned when a Policy's attempt count or deadline is used up.
var ErrExhausted = errors.New("retry budget exhausted")

// Policy bounds a polling loop. The first attempt runs immediately.
type Policy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	// MaxAttempts counts every call of f, including the first one.
	MaxAttempts int
	// Timeout is the hard ceiling on the whole loop.
	Timeout time.Duration
}

// Backoff returns the interval schedule of p: InitialInterval growing by
// Multiplier up to MaxInterval, without jitter. A zero MaxInterval leaves the
// interval uncapped.
func (p Policy) Backoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.RandomizationFactor = 0
	b.Multiplier = math.Max(p.Multiplier, 1)
	b.MaxInterval = p.MaxInterval
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.Reset()
	return b
}

func (p Policy) options() []backoff.RetryOption {
	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.Backoff()),
		backoff.WithMaxElapsedTime(p.Timeout),
	}
	if p.MaxAttempts > 0 {
		opts = append(opts, backoff.WithMaxTries(uint(p.MaxAttempts)))
	}
	return opts
}

// Blocking calls f until it returns nil or an error other than ErrRetry.
// When the attempt budget or timeout runs out it returns the last value of f
// and ErrExhausted. Cancellation of ctx is returned as the context's cause.
func Blocking[T any](ctx context.Context, p Policy, f func(context.Context) (T, error)) (T, error) {
	var last T
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		v, err := f(ctx)
		last = v
		if err != nil && !errors.Is(err, ErrRetry) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, p.options()...)

	var permanent *backoff.PermanentError
	switch {
	case err == nil:
		return last, nil
	case errors.As(err, &permanent):
		return last, permanent.Unwrap()
	case errors.Is(err, ErrRetry):
		return last, ErrExhausted
	default:
		return last, err
	}
}
