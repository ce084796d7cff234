package api

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied per retry.
	BackoffFactor float64

	// JitterFactor is the maximum random jitter added as a fraction of
	// the computed backoff (0-1), preventing synchronized retry bursts.
	JitterFactor float64
}

// DefaultRetryConfig returns the retry defaults used by the crawler.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    4,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}
}

// RetryState is the observable state of a Retrier.
//
// Design decision: the retry loop is an explicit state machine rather than
// ad hoc sleep-and-loop code so that retry budgets, backoff growth, and
// hint handling can each be asserted in tests without sleeping.
type RetryState int

const (
	// StateIdle means Do has not been called yet.
	StateIdle RetryState = iota
	// StateAttempting means an attempt is in flight.
	StateAttempting
	// StateBackoffWait means the retrier is sleeping between attempts.
	StateBackoffWait
	// StateSucceeded means the last Do call returned success.
	StateSucceeded
	// StateFailed means the last Do call exhausted its budget or hit a
	// non-retryable error.
	StateFailed
)

// String returns a human-readable state name.
func (s RetryState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateBackoffWait:
		return "backoff-wait"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Retrier runs an operation with bounded retries and exponential backoff.
// It retries only errors IsRetryable accepts, and honors a RateLimitedError's
// retry-after hint when the hint exceeds the computed backoff.
//
// A Retrier is single-use per logical operation and not safe for concurrent
// use; create one per node expansion.
type Retrier struct {
	cfg      RetryConfig
	state    RetryState
	attempts int
	rng      *rand.Rand

	// sleep waits for the backoff duration or until ctx is done.
	// Replaced in tests to observe waits without sleeping.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier with the given configuration.
func NewRetrier(cfg RetryConfig) *Retrier {
	return &Retrier{
		cfg:   cfg,
		state: StateIdle,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // Jitter needs no cryptographic randomness
		sleep: sleepContext,
	}
}

// State returns the current state of the retrier.
func (r *Retrier) State() RetryState {
	return r.state
}

// Attempts returns how many attempts the last Do call made.
func (r *Retrier) Attempts() int {
	return r.attempts
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempt
// budget is exhausted, or ctx is canceled. It returns fn's last error.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	r.attempts = 0

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			r.state = StateFailed
			return err
		}

		r.state = StateAttempting
		r.attempts = attempt

		err := fn(ctx)
		if err == nil {
			r.state = StateSucceeded
			return nil
		}

		if !IsRetryable(err) || attempt >= r.cfg.MaxAttempts {
			r.state = StateFailed
			return err
		}

		r.state = StateBackoffWait
		if sleepErr := r.sleep(ctx, r.backoffFor(attempt, retryAfterHint(err))); sleepErr != nil {
			r.state = StateFailed
			return sleepErr
		}
	}
}

// backoffFor computes the wait after the given attempt (1-based):
// InitialBackoff * BackoffFactor^(attempt-1), capped at MaxBackoff, plus
// jitter. A server hint overrides the computed wait when it is longer.
func (r *Retrier) backoffFor(attempt int, hint time.Duration) time.Duration {
	backoff := float64(r.cfg.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= r.cfg.BackoffFactor
		if backoff >= float64(r.cfg.MaxBackoff) {
			backoff = float64(r.cfg.MaxBackoff)
			break
		}
	}

	if r.cfg.JitterFactor > 0 {
		backoff += backoff * r.cfg.JitterFactor * r.rng.Float64()
	}

	wait := time.Duration(backoff)
	if wait > r.cfg.MaxBackoff {
		wait = r.cfg.MaxBackoff
	}
	if hint > wait {
		wait = hint
	}
	return wait
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
