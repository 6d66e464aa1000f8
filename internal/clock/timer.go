// Package clock provides the match countdown timer. All time reads go
// through an injected clockwork.Clock so tests can drive the timer with a
// fake clock.
package clock

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrInvalidState is returned for pause/resume calls that do not match
	// the timer's current state.
	ErrInvalidState = errors.New("timer: invalid state transition")

	// ErrAlreadyStarted is returned by Start on a timer that was started
	// and not reset.
	ErrAlreadyStarted = errors.New("timer: already started")
)

// Timer is a pause-aware countdown. Elapsed time is exact across any
// number of pause/resume cycles: resuming shifts the epoch forward by the
// paused duration, so time spent paused never counts as elapsed.
type Timer struct {
	clock    clockwork.Clock
	length   time.Duration
	started  bool
	paused   bool
	epoch    time.Time
	pausedAt time.Time
}

// New creates a timer of the given length. A negative length is a contract
// violation. Length zero means unbounded: Remaining goes negative
// immediately and callers use Elapsed only.
func New(length time.Duration, clk clockwork.Clock) (*Timer, error) {
	if length < 0 {
		return nil, fmt.Errorf("timer: negative length %v", length)
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Timer{clock: clk, length: length}, nil
}

// Start records the current instant as the epoch.
func (t *Timer) Start() error {
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	t.paused = false
	t.epoch = t.clock.Now()
	return nil
}

// Pause freezes elapsed accounting. Valid only while running.
func (t *Timer) Pause() error {
	if !t.started || t.paused {
		return ErrInvalidState
	}
	t.paused = true
	t.pausedAt = t.clock.Now()
	return nil
}

// Resume shifts the epoch forward by the paused duration so the pause is
// excluded from elapsed time. Valid only while paused.
func (t *Timer) Resume() error {
	if !t.started || !t.paused {
		return ErrInvalidState
	}
	t.epoch = t.epoch.Add(t.clock.Now().Sub(t.pausedAt))
	t.paused = false
	return nil
}

// Elapsed returns the running time accumulated since Start, excluding
// pauses. Zero before Start.
func (t *Timer) Elapsed() time.Duration {
	if !t.started {
		return 0
	}
	if t.paused {
		return t.pausedAt.Sub(t.epoch)
	}
	return t.clock.Now().Sub(t.epoch)
}

// Remaining returns length minus elapsed. May be negative; callers treat
// <= 0 as expired.
func (t *Timer) Remaining() time.Duration {
	return t.length - t.Elapsed()
}

// Reset returns the timer to its initial unstarted state.
func (t *Timer) Reset() {
	t.started = false
	t.paused = false
}

// Paused reports whether the timer is currently paused.
func (t *Timer) Paused() bool {
	return t.started && t.paused
}

// Length returns the configured countdown length.
func (t *Timer) Length() time.Duration {
	return t.length
}
