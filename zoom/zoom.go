// Package zoom implements per-graph view windowing: a zoom factor and an
// offset select which sub-range of a track's sample indices is visible.
// The gesture math lives in pure functions so every graph call site shares
// one implementation; Window is the small stateful wrapper around them.
package zoom

import "math"

const (
	// ZoomMin is the fully zoomed-out factor (whole track visible)
	ZoomMin = 1.0
	// ZoomMax caps wheel zooming
	ZoomMax = 8.0
	// ZoomStep is how much one wheel notch changes the zoom factor
	ZoomStep = 0.25
)

// clamp bounds v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// maxOffset returns the largest valid offset for a zoom factor, keeping the
// visible window inside [0, 100].
func maxOffset(zoom float64) float64 {
	return math.Max(0, 100-100/zoom)
}

// ApplyWheel applies one wheel notch. Positive direction zooms in. Zooming
// out reclamps the offset so the window never runs past the right edge;
// zooming in needs no offset change.
func ApplyWheel(zoom, offset float64, direction int) (float64, float64) {
	step := ZoomStep
	if direction <= 0 {
		step = -ZoomStep
	}
	newZoom := clamp(zoom+step, ZoomMin, ZoomMax)
	if newZoom < zoom {
		offset = math.Min(offset, maxOffset(newZoom))
	}
	return newZoom, offset
}

// ApplyDrag pans the window by a horizontal pixel delta over a graph of the
// given pixel width. Panning is only active when zoomed in.
func ApplyDrag(zoom, offset, pixelDeltaX, graphWidthPx float64) float64 {
	if zoom <= ZoomMin || graphWidthPx <= 0 {
		return offset
	}
	visiblePercent := 100 / zoom
	percentDelta := (pixelDeltaX / graphWidthPx) * visiblePercent
	return clamp(offset+percentDelta, 0, maxOffset(zoom))
}

// Bounds returns the visible window [start, end] in playhead percent
func Bounds(zoom, offset float64) (start, end float64) {
	return offset, offset + 100/zoom
}

// IndicatorVisible reports whether the playhead indicator should be drawn:
// only when the position falls inside the visible window.
func IndicatorVisible(position, start, end float64) bool {
	return position >= start && position <= end
}

// VisibleIndexRange maps the percent window onto sample indices of a track
// with n samples. The returned range is inclusive; lo > hi means no sample
// falls inside the window.
func VisibleIndexRange(n int, start, end float64) (lo, hi int) {
	if n == 0 {
		return 0, -1
	}
	lo = int(math.Ceil(start / 100 * float64(n-1)))
	hi = int(math.Floor(end / 100 * float64(n-1)))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

// SeriesRange scans values[lo:hi+1] and returns the min and max, used for
// vertical axis scaling of the visible slice. Zooming trades a fixed axis
// for higher vertical resolution: only samples inside the window count.
func SeriesRange(values []float64, lo, hi int) (min, max float64, ok bool) {
	if lo < 0 {
		lo = 0
	}
	if hi > len(values)-1 {
		hi = len(values) - 1
	}
	if lo > hi {
		return 0, 0, false
	}
	min, max = values[lo], values[lo]
	for _, v := range values[lo+1 : hi+1] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, true
}

// Window is the per-graph zoom/pan state
type Window struct {
	Zoom   float64 `json:"zoom"`
	Offset float64 `json:"offset"`
}

// NewWindow returns the fully zoomed-out window
func NewWindow() *Window {
	return &Window{Zoom: ZoomMin, Offset: 0}
}

// Wheel applies a zoom gesture in place
func (w *Window) Wheel(direction int) {
	w.Zoom, w.Offset = ApplyWheel(w.Zoom, w.Offset, direction)
}

// Drag applies a pan gesture in place
func (w *Window) Drag(pixelDeltaX, graphWidthPx float64) {
	w.Offset = ApplyDrag(w.Zoom, w.Offset, pixelDeltaX, graphWidthPx)
}

// Reset returns the window to {zoom:1, offset:0}
func (w *Window) Reset() {
	w.Zoom = ZoomMin
	w.Offset = 0
}

// Bounds returns the visible window in playhead percent
func (w *Window) Bounds() (start, end float64) {
	return Bounds(w.Zoom, w.Offset)
}
