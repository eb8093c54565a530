package genai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/moneywise/internal/observability"
)

// Retrying retries transient failures of the wrapped Completer with
// exponential backoff: base, 2*base, 4*base... between attempts, no jitter.
type Retrying struct {
	next        Completer
	maxAttempts uint
	baseDelay   time.Duration
}

// WithRetry wraps c. maxAttempts counts the first call; values below 1 are
// treated as 1.
func WithRetry(c Completer, maxAttempts int, baseDelay time.Duration) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrying{next: c, maxAttempts: uint(maxAttempts), baseDelay: baseDelay}
}

// Complete calls the wrapped Completer until it succeeds, returns a permanent
// error, or the attempts are exhausted. The last error is returned.
func (r *Retrying) Complete(ctx context.Context, prompt string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.baseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = r.baseDelay << 10

	attempt := 0
	op := func() (string, error) {
		attempt++
		out, err := r.next.Complete(ctx, prompt)
		if err == nil {
			observability.GenerationAttempts.WithLabelValues("ok").Inc()
			return out, nil
		}
		if ctx.Err() != nil || !IsTransient(err) {
			observability.GenerationAttempts.WithLabelValues("permanent").Inc()
			return "", backoff.Permanent(err)
		}
		observability.GenerationAttempts.WithLabelValues("transient").Inc()
		return "", err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.maxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("completion attempt failed")
		}),
	)
}

// IsTransient classifies a Complete error. Network errors, per-attempt
// timeouts, 429 and 5xx are transient; everything else is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
