package track

import (
	"sort"
	"time"
)

// Sample represents one recorded telemetry point for an aircraft
type Sample struct {
	Timestamp    time.Time `json:"timestamp"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Altitude     float64   `json:"altitude"`
	GroundSpeed  float64   `json:"ground_speed"`
	VerticalRate float64   `json:"vertical_rate"`
	Heading      float64   `json:"heading"`
	Callsign     string    `json:"callsign"`
}

// Track is a chronological (oldest-first) sequence of samples for one aircraft.
// A track is immutable once built; a refetch replaces the whole sequence.
type Track []Sample

// Normalize builds a Track from samples in any order. Source systems deliver
// samples newest-first, so the input is copied and sorted oldest-first.
func Normalize(samples []Sample) Track {
	t := make(Track, len(samples))
	copy(t, samples)
	sort.SliceStable(t, func(i, j int) bool {
		return t[i].Timestamp.Before(t[j].Timestamp)
	})
	return t
}

// Len returns the number of samples in the track
func (t Track) Len() int {
	return len(t)
}
