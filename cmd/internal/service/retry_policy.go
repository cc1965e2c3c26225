package service

import (
	"appointease/cmd/internal/domain/entity"
	"time"
)

// RetryPolicy decides whether a failed notification earns another
// attempt and when that attempt is due.
type RetryPolicy interface {
	Next(failed *entity.Notification, failedAt int64) (retryAt int64, ok bool)
}

// NoRetry never retries. A failed notification stays failed.
type NoRetry struct{}

func (NoRetry) Next(*entity.Notification, int64) (int64, bool) {
	return 0, false
}

// FixedDelayRetry schedules a fresh pending row Delay after the
// failure until the notification has been attempted MaxAttempts times
// in addition to the first try.
type FixedDelayRetry struct {
	MaxAttempts int
	Delay       time.Duration
}

func (f FixedDelayRetry) Next(failed *entity.Notification, failedAt int64) (int64, bool) {
	if failed.Attempt >= f.MaxAttempts {
		return 0, false
	}
	return failedAt + f.Delay.Milliseconds(), true
}

// NewRetryPolicy picks the policy matching the configured attempts.
func NewRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		return NoRetry{}
	}
	return FixedDelayRetry{MaxAttempts: maxAttempts, Delay: delay}
}
