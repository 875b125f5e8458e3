package replay

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frozenController returns a controller whose clock never advances, so the
// background frame task ticks zero-length deltas and all advancement comes
// from explicit Tick calls.
func frozenController() *Controller {
	c := NewController(nil)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }
	return c
}

func TestInitialState(t *testing.T) {
	c := frozenController()
	state := c.State()
	assert.Equal(t, 0.0, state.Position)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, 1.0, state.Speed)
}

func TestTickAdvancesByDeltaAndSpeed(t *testing.T) {
	// speed=2: a 200ms tick advances position by (200/200)*2 = 2 points
	c := frozenController()
	defer c.Close()
	c.SetSpeed(2)
	c.Play()

	state := c.Tick(200)
	assert.InDelta(t, 2.0, state.Position, 1e-9)
	assert.True(t, state.IsPlaying)

	state = c.Tick(100)
	assert.InDelta(t, 3.0, state.Position, 1e-9)
}

func TestTickIgnoredWhilePaused(t *testing.T) {
	c := frozenController()
	state := c.Tick(500)
	assert.Equal(t, 0.0, state.Position)
	assert.False(t, state.IsPlaying)
}

func TestTickClampsAtEndAndPauses(t *testing.T) {
	c := frozenController()
	defer c.Close()
	c.SetPosition(99)
	c.Play()

	state := c.Tick(1000)
	assert.Equal(t, 100.0, state.Position)
	assert.False(t, state.IsPlaying)
}

func TestPlayAtEndStaysPaused(t *testing.T) {
	// Starting playback at position 100 must not advance anything
	c := frozenController()
	c.SetPosition(100)
	c.Play()

	state := c.State()
	assert.Equal(t, 100.0, state.Position)
	assert.False(t, state.IsPlaying)
}

func TestSetPositionInterruptsPlayback(t *testing.T) {
	// Manual scrub while playing pauses and takes the exact value
	c := frozenController()
	defer c.Close()
	c.Play()
	require.True(t, c.State().IsPlaying)

	c.SetPosition(37)
	state := c.State()
	assert.Equal(t, 37.0, state.Position)
	assert.False(t, state.IsPlaying)
}

func TestSetPositionClamps(t *testing.T) {
	c := frozenController()
	c.SetPosition(250)
	assert.Equal(t, 100.0, c.State().Position)
	c.SetPosition(-10)
	assert.Equal(t, 0.0, c.State().Position)
}

func TestSkipsPauseAtTarget(t *testing.T) {
	c := frozenController()
	defer c.Close()

	c.Play()
	c.SkipToEnd()
	state := c.State()
	assert.Equal(t, 100.0, state.Position)
	assert.False(t, state.IsPlaying)

	c.SkipToStart()
	assert.Equal(t, 0.0, c.State().Position)

	c.JumpToEvent()
	assert.Equal(t, EventPosition, c.State().Position)
}

func TestSetSpeedKeepsPlayState(t *testing.T) {
	c := frozenController()
	defer c.Close()
	c.Play()

	c.SetSpeed(4)
	state := c.State()
	assert.True(t, state.IsPlaying)
	assert.Equal(t, 4.0, state.Speed)

	// Non-positive speeds are ignored
	c.SetSpeed(0)
	c.SetSpeed(-1)
	assert.Equal(t, 4.0, c.State().Speed)
}

func TestPauseCancelsPendingFrame(t *testing.T) {
	var ticks atomic.Int64
	c := NewController(func(State) { ticks.Add(1) })
	c.Play()

	// Let a few frames fire, then pause
	time.Sleep(150 * time.Millisecond)
	c.Pause()
	after := ticks.Load()
	assert.Greater(t, after, int64(0))

	// No tick may fire once Pause has returned
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
	assert.False(t, c.State().IsPlaying)
}

func TestPlaybackReachesEndAndStops(t *testing.T) {
	c := NewController(nil)
	defer c.Close()
	c.SetPosition(99.5)
	c.SetSpeed(8) // ~12ms of wall clock left at this speed
	c.Play()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := c.State()
		if !state.IsPlaying {
			assert.Equal(t, 100.0, state.Position)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("playback never reached the end")
}

func TestPositionMonotonicWhilePlaying(t *testing.T) {
	c := NewController(nil)
	defer c.Close()
	c.SetSpeed(4)
	c.Play()

	prev := c.State().Position
	for i := 0; i < 20; i++ {
		time.Sleep(10 * time.Millisecond)
		pos := c.State().Position
		assert.GreaterOrEqual(t, pos, prev)
		prev = pos
	}
}
