package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstWaitIsImmediate(t *testing.T) {
	l := New(Config{Delay: time.Hour})

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPauseFollowsSlowCall(t *testing.T) {
	const delay = 200 * time.Millisecond
	l := New(Config{Delay: delay, Name: "test"})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	time.Sleep(300 * time.Millisecond) // call outlasts the delay
	l.Done()
	finished := time.Now()

	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(finished), delay-10*time.Millisecond)
}

func TestPauseFollowsFastCall(t *testing.T) {
	const delay = 100 * time.Millisecond
	l := New(Config{Delay: delay})
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		require.NoError(t, l.Wait(ctx))
		l.Done()
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 2*delay-20*time.Millisecond)
	assert.Less(t, elapsed, 3*delay)
}

func TestDoneAtDrainsFromThatInstant(t *testing.T) {
	const delay = 150 * time.Millisecond
	l := New(Config{Delay: delay})
	l.doneAt(time.Now().Add(-100 * time.Millisecond))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	waited := time.Since(start)
	assert.GreaterOrEqual(t, waited, 30*time.Millisecond)
	assert.Less(t, waited, delay)
}

func TestZeroDelayIsUnlimited(t *testing.T) {
	l := New(Config{})
	assert.Zero(t, l.Delay())
	assert.Equal(t, "api", l.name)

	start := time.Now()
	for range 100 {
		require.NoError(t, l.Wait(context.Background()))
		l.Done()
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestWaitGivesUpBeforeDeadline(t *testing.T) {
	l := New(Config{Delay: time.Hour})
	require.NoError(t, l.Wait(context.Background()))
	l.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := l.Wait(ctx)
	require.ErrorContains(t, err, "rate limit wait")
	assert.Less(t, time.Since(start), time.Second)
}

func TestFromSeconds(t *testing.T) {
	for in, want := range map[float64]time.Duration{
		-3:   0,
		0:    0,
		0.25: 250 * time.Millisecond,
		1:    time.Second,
		2.5:  2500 * time.Millisecond,
	} {
		assert.Equal(t, want, FromSeconds(in), "seconds %v", in)
	}
}
