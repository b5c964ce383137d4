package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		want      string
	}{
		{90061 * time.Second, "1d 1h 1m 1s"},
		{0, "0d 0h 0m 0s"},
		{59*time.Second + 999*time.Millisecond, "0d 0h 0m 59s"},
		{3*24*time.Hour + 23*time.Hour + 59*time.Minute, "3d 23h 59m 0s"},
		{-time.Millisecond, PassedMessage},
		{-48 * time.Hour, PassedMessage},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Format(tc.remaining), tc.remaining.String())
	}
}

func TestTimerCountsDownAndHalts(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	timer := NewTimer(clock)
	ticks := make(chan Tick, 16)
	timer.OnTick(func(tk Tick) { ticks <- tk })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		timer.Run(ctx)
		close(done)
	}()

	timer.SetTarget(clock.Now().Add(90061 * time.Second))
	first := <-ticks
	assert.Equal(t, "1d 1h 1m 1s", first.Text)
	assert.Equal(t, "1d 1h 1m 1s", timer.Text())

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(TickInterval)
	assert.Equal(t, "1d 1h 1m 0s", (<-ticks).Text)

	// jump past the target; the next tick reports passed and stops the ticker
	clock.Advance(90061 * time.Second)
	last := <-ticks
	assert.True(t, last.Passed)
	assert.Equal(t, PassedMessage, last.Text)

	require.NoError(t, clock.BlockUntilContext(ctx, 0))
	clock.Advance(time.Hour)
	assert.Equal(t, PassedMessage, timer.Text())
	assert.Empty(t, ticks, "no ticks after the target passed")

	// a new target restarts the countdown
	timer.SetTarget(clock.Now().Add(2 * time.Minute))
	assert.Equal(t, "0d 0h 2m 0s", (<-ticks).Text)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(TickInterval)
	assert.Equal(t, "0d 0h 1m 59s", (<-ticks).Text)

	cancel()
	<-done
}

func TestTimerPastTarget(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewTimer(clock)
	assert.Empty(t, timer.Text())

	timer.SetTarget(clock.Now().Add(-time.Second))
	assert.Equal(t, PassedMessage, timer.Text())
	assert.True(t, timer.Last().Passed)
}
