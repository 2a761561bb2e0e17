package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantTimer fires immediately and remembers every requested wait.
type instantTimer struct {
	waits []time.Duration
	c     chan time.Time
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

var errBoom = errors.New("boom")

func TestMachine_Transitions(t *testing.T) {
	m := NewMachine(Policy{MaxAttempts: 2, Delay: 50 * time.Millisecond})
	assert.Equal(t, StateAttempting, m.State())
	assert.Equal(t, 1, m.Attempt())

	assert.Equal(t, StateWaiting, m.Record(errBoom))
	assert.Equal(t, 50*time.Millisecond, m.Delay())
	assert.Equal(t, errBoom, m.Err())

	// Record is ignored while waiting.
	assert.Equal(t, StateWaiting, m.Record(nil))

	assert.Equal(t, StateAttempting, m.Resume())
	assert.Equal(t, 2, m.Attempt())

	assert.Equal(t, StateFailed, m.Record(errBoom))
	assert.True(t, m.Done())
	assert.Equal(t, 2, m.Completed())
}

func TestMachine_SuccessIsTerminal(t *testing.T) {
	m := NewMachine(Policy{MaxAttempts: 3})
	assert.Equal(t, StateSucceeded, m.Record(nil))
	assert.Equal(t, StateSucceeded, m.Abort(errBoom))
	assert.NoError(t, m.Err())
}

func TestMachine_SingleAttemptNeverWaits(t *testing.T) {
	m := NewMachine(Policy{MaxAttempts: 1, Delay: time.Hour})
	assert.Equal(t, StateFailed, m.Record(errBoom))
}

func TestRun_PermanentFailure(t *testing.T) {
	timer := newInstantTimer()
	calls := 0

	res := Run(context.Background(), Policy{MaxAttempts: 4, Delay: 25 * time.Millisecond}, timer,
		func(ctx context.Context, attempt int) error {
			calls++
			assert.Equal(t, calls, attempt)
			return errBoom
		}, nil)

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 4, calls)
	assert.ErrorIs(t, res.Err, errBoom)
	assert.Equal(t, []time.Duration{25 * time.Millisecond, 25 * time.Millisecond, 25 * time.Millisecond}, timer.waits)
}

func TestRun_SucceedsOnAttemptK(t *testing.T) {
	timer := newInstantTimer()
	calls := 0

	res := Run(context.Background(), Policy{MaxAttempts: 5, Delay: time.Millisecond}, timer,
		func(ctx context.Context, attempt int) error {
			calls++
			if attempt == 3 {
				return nil
			}
			return errBoom
		}, nil)

	assert.True(t, res.Succeeded())
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, calls)
	assert.Len(t, timer.waits, 2)
}

func TestRun_ZeroDelayRetriesImmediately(t *testing.T) {
	timer := newInstantTimer()
	res := Run(context.Background(), Policy{MaxAttempts: 3, Delay: 0}, timer,
		func(ctx context.Context, attempt int) error { return errBoom }, nil)

	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{0, 0}, timer.waits)
}

func TestRun_OnRetryCallback(t *testing.T) {
	var seen []int
	res := Run(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, newInstantTimer(),
		func(ctx context.Context, attempt int) error { return errBoom },
		func(attempt int, err error, delay time.Duration) {
			seen = append(seen, attempt)
			assert.ErrorIs(t, err, errBoom)
			assert.Equal(t, time.Millisecond, delay)
		})

	assert.False(t, res.Succeeded())
	assert.Equal(t, []int{1, 2}, seen)
}

func TestRun_ContextCancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	res := Run(ctx, Policy{MaxAttempts: 3, Delay: time.Hour}, NewTimer(),
		func(ctx context.Context, attempt int) error {
			calls++
			cancel()
			return errBoom
		}, nil)

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, res.Attempts)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestRun_RealTimerWaits(t *testing.T) {
	start := time.Now()
	res := Run(context.Background(), Policy{MaxAttempts: 2, Delay: 20 * time.Millisecond}, nil,
		func(ctx context.Context, attempt int) error { return errBoom }, nil)

	assert.Equal(t, 2, res.Attempts)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
