package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type State int

const (
	StateAttempting State = iota
	StateWaiting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateWaiting:
		return "waiting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Machine tracks one bounded run of attempts:
//
//	Attempting(k) --ok--> Succeeded
//	Attempting(k) --err, retries left--> Waiting(k)
//	Attempting(k) --err, none left--> Failed
//	Waiting(k) --timer--> Attempting(k+1)
//	any non-terminal --abort--> Failed
type Machine struct {
	policy    Policy
	backoff   backoff.BackOff
	state     State
	attempt   int
	completed int
	delay     time.Duration
	lastErr   error
}

func NewMachine(policy Policy) *Machine {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Machine{
		policy:  policy,
		backoff: FixedBackoff(policy.Delay, policy.MaxAttempts),
		state:   StateAttempting,
		attempt: 1,
	}
}

func (m *Machine) State() State { return m.state }

// Attempt is the number k of the current or last attempt.
func (m *Machine) Attempt() int { return m.attempt }

// Completed counts attempts whose result has been recorded.
func (m *Machine) Completed() int { return m.completed }

func (m *Machine) Delay() time.Duration { return m.delay }

func (m *Machine) Err() error { return m.lastErr }

func (m *Machine) Done() bool {
	return m.state == StateSucceeded || m.state == StateFailed
}

// Record applies the result of the current attempt. It is a no-op outside Attempting.
func (m *Machine) Record(err error) State {
	if m.state != StateAttempting {
		return m.state
	}
	m.completed++

	if err == nil {
		m.state = StateSucceeded
		m.lastErr = nil
		return m.state
	}

	m.lastErr = err
	next := m.backoff.NextBackOff()
	if next == backoff.Stop {
		m.state = StateFailed
		return m.state
	}

	m.delay = next
	m.state = StateWaiting
	return m.state
}

// Resume moves Waiting(k) to Attempting(k+1).
func (m *Machine) Resume() State {
	if m.state != StateWaiting {
		return m.state
	}
	m.attempt++
	m.delay = 0
	m.state = StateAttempting
	return m.state
}

func (m *Machine) Abort(err error) State {
	if m.Done() {
		return m.state
	}
	if err != nil {
		m.lastErr = err
	}
	m.state = StateFailed
	return m.state
}

type Result struct {
	State    State
	Attempts int
	Err      error
}

func (r Result) Succeeded() bool {
	return r.State == StateSucceeded
}

// Run drives a Machine to completion. fn is called once per attempt, strictly
// sequentially. onRetry, if set, fires before each wait.
func Run(ctx context.Context, policy Policy, timer Timer, fn func(ctx context.Context, attempt int) error, onRetry func(attempt int, err error, delay time.Duration)) Result {
	if timer == nil {
		timer = NewTimer()
	}
	defer timer.Stop()

	m := NewMachine(policy)
	for !m.Done() {
		switch m.State() {
		case StateAttempting:
			if err := ctx.Err(); err != nil {
				m.Abort(err)
				continue
			}
			m.Record(fn(ctx, m.Attempt()))
		case StateWaiting:
			if onRetry != nil {
				onRetry(m.Attempt(), m.Err(), m.Delay())
			}
			timer.Start(m.Delay())
			select {
			case <-timer.C():
				m.Resume()
			case <-ctx.Done():
				m.Abort(ctx.Err())
			}
		}
	}

	return Result{State: m.State(), Attempts: m.Completed(), Err: m.Err()}
}
