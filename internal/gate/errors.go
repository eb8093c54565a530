package gate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited is matched by every *RateLimitError.
	ErrRateLimited = errors.New("rate limited")
	// ErrGenerationFailed reports exhausted retries or an unusable upstream
	// response. The upstream cause is wrapped alongside it.
	ErrGenerationFailed = errors.New("analysis generation failed")
)

// RateLimitError is returned when the caller's quota is exhausted.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

// Is makes errors.Is(err, ErrRateLimited) match.
func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }
