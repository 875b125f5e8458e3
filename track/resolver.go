package track

import "math"

// ResolveIndex maps a playhead percentage to a sample index using
// nearest-rank lookup. Returns -1 when the track has fewer than two
// samples (a valid empty state, not an error).
//
// Point-sampling is deliberate: interpolating between samples would
// synthesize geographically invalid positions when real-world sample
// spacing is irregular. The index is non-decreasing in positionPercent.
func ResolveIndex(n int, positionPercent float64) int {
	if n < 2 {
		return -1
	}
	index := int(math.Floor(positionPercent / 100.0 * float64(n-1)))
	if index < 0 {
		index = 0
	}
	if index > n-1 {
		index = n - 1
	}
	return index
}

// Resolve returns the sample under the playhead, or nil when the track
// holds insufficient data.
func Resolve(t Track, positionPercent float64) *Sample {
	index := ResolveIndex(len(t), positionPercent)
	if index < 0 {
		return nil
	}
	return &t[index]
}
