package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// FixedBackoff waits delay between attempts and stops after maxAttempts-1 retries.
func FixedBackoff(delay time.Duration, maxAttempts int) backoff.BackOff {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(maxAttempts-1))
}

// Timer matches backoff.Timer so callers can swap the clock in tests.
type Timer = backoff.Timer

type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t *realTimer) Start(duration time.Duration) {
	if t.timer == nil {
		t.timer = time.NewTimer(duration)
	} else {
		t.timer.Reset(duration)
	}
}

func (t *realTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func NewTimer() Timer {
	return &realTimer{}
}
