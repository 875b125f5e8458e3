// Package replay implements the playhead state machine for one displayed
// event: a position in [0,100], a play/pause flag, and a playback speed,
// advanced by a cancellable self-rescheduling frame task.
package replay

import (
	"sync"
	"time"
)

const (
	// PercentUnitMs is the nominal wall-clock milliseconds spent per
	// percentage point at speed 1. Traversing 0-100 therefore takes ~20s
	// regardless of how many samples the track holds.
	PercentUnitMs = 200.0

	// EventPosition is the playhead position of the event instant by
	// convention
	EventPosition = 50.0

	// frameInterval is how often the playback task wakes up while playing
	frameInterval = 33 * time.Millisecond
)

// State is the replay state shared by every view of one event
type State struct {
	Position  float64 `json:"position"`
	IsPlaying bool    `json:"is_playing"`
	Speed     float64 `json:"speed"`
}

// Controller owns one playhead. All transitions are serialized by one
// mutex; background playback is a single pending timer callback that
// reschedules itself each frame.
//
// The tick callback runs with the controller locked, so once Pause or any
// skip returns, no further tick can be observed. Subscribers must not call
// back into the controller from the callback.
type Controller struct {
	mutex sync.Mutex
	state State

	// generation invalidates pending frames on cancel; a stale frame
	// re-checks it under the mutex and drops
	generation uint64
	timer      *time.Timer
	lastFrame  time.Time

	now    func() time.Time
	onTick func(State)
}

// NewController creates a paused controller at position 0, speed 1. onTick
// is invoked after every position change driven by playback (not manual
// scrubs) and may be nil.
func NewController(onTick func(State)) *Controller {
	return &Controller{
		state:  State{Position: 0, IsPlaying: false, Speed: 1},
		now:    time.Now,
		onTick: onTick,
	}
}

// State returns a copy of the current replay state
func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

// Play transitions Paused to Playing and schedules the first frame. Playing
// from the end of the track is a no-op: the controller stays Paused without
// advancing.
func (c *Controller) Play() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.IsPlaying || c.state.Position >= 100 {
		return
	}
	c.state.IsPlaying = true
	c.lastFrame = c.now()
	c.scheduleLocked()
}

// Pause transitions Playing to Paused and cancels the pending frame
func (c *Controller) Pause() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cancelLocked()
}

// SetSpeed updates the playback speed without changing play state; it takes
// effect on the next tick. Non-positive speeds are ignored.
func (c *Controller) SetSpeed(speed float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if speed > 0 {
		c.state.Speed = speed
	}
}

// SetPosition is a manual scrub: it sets the playhead directly, clamped to
// [0,100], and always interrupts playback.
func (c *Controller) SetPosition(position float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cancelLocked()
	c.state.Position = clampPercent(position)
}

// SkipToStart pauses at position 0
func (c *Controller) SkipToStart() { c.skipTo(0) }

// SkipToEnd pauses at position 100
func (c *Controller) SkipToEnd() { c.skipTo(100) }

// JumpToEvent pauses at the event instant
func (c *Controller) JumpToEvent() { c.skipTo(EventPosition) }

func (c *Controller) skipTo(position float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cancelLocked()
	c.state.Position = position
}

// Close cancels any pending frame; the controller must not be reused after
// session teardown.
func (c *Controller) Close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cancelLocked()
}

// Tick advances the playhead by an elapsed delta while Playing. Reaching
// the end clamps to 100 and transitions to Paused; there is no auto-loop.
// Exposed for deterministic advancement; the frame task calls it with
// measured wall-clock deltas.
func (c *Controller) Tick(deltaMs float64) State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.tickLocked(deltaMs)
}

func (c *Controller) tickLocked(deltaMs float64) State {
	if !c.state.IsPlaying {
		return c.state
	}
	c.state.Position += (deltaMs / PercentUnitMs) * c.state.Speed
	if c.state.Position >= 100 {
		c.state.Position = 100
		c.cancelLocked()
	}
	return c.state
}

// scheduleLocked arms the single pending frame. Caller holds the mutex.
func (c *Controller) scheduleLocked() {
	generation := c.generation
	c.timer = time.AfterFunc(frameInterval, func() {
		c.frame(generation)
	})
}

// cancelLocked stops playback and invalidates any pending frame. Caller
// holds the mutex.
func (c *Controller) cancelLocked() {
	c.state.IsPlaying = false
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) frame(generation uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if generation != c.generation || !c.state.IsPlaying {
		return
	}

	now := c.now()
	deltaMs := float64(now.Sub(c.lastFrame)) / float64(time.Millisecond)
	c.lastFrame = now

	state := c.tickLocked(deltaMs)
	if c.state.IsPlaying {
		c.scheduleLocked()
	}
	if c.onTick != nil {
		c.onTick(state)
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
