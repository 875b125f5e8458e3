package sessions

import "sync"

// Wheel-scrub step sizes in playhead percent. The coarse step applies to a
// plain wheel scrub over the timeline, the fine step while the modifier key
// is held. The magnitudes are conventional, not sacred, so they are
// configurable at runtime.
var (
	wheelScrubStep     = 1.0
	wheelScrubFineStep = 0.1
	scrubConfigMux     = &sync.Mutex{}
)

// ScrubStep returns the configured step for a wheel scrub
func ScrubStep(fine bool) float64 {
	scrubConfigMux.Lock()
	defer scrubConfigMux.Unlock()
	if fine {
		return wheelScrubFineStep
	}
	return wheelScrubStep
}

// SetScrubSteps updates the wheel-scrub step sizes; non-positive values
// leave the current setting unchanged
func SetScrubSteps(coarse, fine float64) {
	scrubConfigMux.Lock()
	defer scrubConfigMux.Unlock()
	if coarse > 0 {
		wheelScrubStep = coarse
	}
	if fine > 0 {
		wheelScrubFineStep = fine
	}
}

// ScrubSteps returns the current coarse and fine step sizes
func ScrubSteps() (coarse, fine float64) {
	scrubConfigMux.Lock()
	defer scrubConfigMux.Unlock()
	return wheelScrubStep, wheelScrubFineStep
}
