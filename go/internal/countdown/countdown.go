package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// PassedMessage is shown once the storm target is in the past
const PassedMessage = "The storm has passed."

// TickInterval is how often the remaining time is recomputed
const TickInterval = time.Second

const day = 24 * time.Hour

// Format renders a remaining duration as "{d}d {h}h {m}m {s}s", or the
// passed message for negative durations
func Format(remaining time.Duration) string {
	if remaining < 0 {
		return PassedMessage
	}
	days := remaining / day
	remaining -= days * day
	hours := remaining / time.Hour
	remaining -= hours * time.Hour
	minutes := remaining / time.Minute
	remaining -= minutes * time.Minute
	seconds := remaining / time.Second
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}

// Tick is one recomputation of the countdown
type Tick struct {
	Target    time.Time     `json:"target"`
	Remaining time.Duration `json:"remaining_ns"`
	Text      string        `json:"text"`
	Passed    bool          `json:"passed"`
	At        time.Time     `json:"at"`
}

// Timer keeps the countdown text for the current storm target. Once the
// target has passed it stops ticking until a new target is set.
type Timer struct {
	clock clockwork.Clock
	reset chan struct{}

	mu      sync.RWMutex
	target  *time.Time
	last    Tick
	passed  bool
	handler func(Tick)
}

// NewTimer creates a timer with no target
func NewTimer(clock clockwork.Clock) *Timer {
	return &Timer{
		clock: clock,
		reset: make(chan struct{}, 1),
	}
}

// OnTick sets the func called after every recomputation. It runs on the
// timer goroutine and must not block.
func (t *Timer) OnTick(fn func(Tick)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = fn
}

// SetTarget replaces the storm target and wakes a halted timer
func (t *Timer) SetTarget(target time.Time) {
	t.mu.Lock()
	t.target = &target
	t.passed = false
	t.mu.Unlock()

	t.update()

	select {
	case t.reset <- struct{}{}:
	default:
	}
}

// Text returns the most recent countdown text; empty before any target
func (t *Timer) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last.Text
}

// Last returns the most recent tick
func (t *Timer) Last() Tick {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func (t *Timer) active() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.target != nil && !t.passed
}

// update recomputes the text and reports whether the target has passed
func (t *Timer) update() bool {
	t.mu.Lock()
	if t.target == nil {
		t.mu.Unlock()
		return false
	}
	now := t.clock.Now()
	remaining := t.target.Sub(now)
	tick := Tick{
		Target:    *t.target,
		Remaining: remaining,
		Text:      Format(remaining),
		Passed:    remaining < 0,
		At:        now,
	}
	t.last = tick
	t.passed = tick.Passed
	handler := t.handler
	t.mu.Unlock()

	if handler != nil {
		handler(tick)
	}
	return tick.Passed
}

// Run ticks until ctx is cancelled
func (t *Timer) Run(ctx context.Context) {
	log.Debug().Msg("countdown timer started")
	defer log.Debug().Msg("countdown timer stopped")

	for {
		if !t.active() {
			select {
			case <-ctx.Done():
				return
			case <-t.reset:
			}
			continue
		}
		t.tick(ctx)
		if ctx.Err() != nil {
			return
		}
	}
}

// tick runs one ticker until the target passes or ctx is done. A target
// replaced mid-run is picked up on the next tick.
func (t *Timer) tick(ctx context.Context) {
	ticker := t.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if t.update() {
				log.Info().Msg("storm target passed, countdown halted")
				return
			}
		}
	}
}
