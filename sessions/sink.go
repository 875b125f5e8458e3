package sessions

import (
	"github.com/avreplay/incident-replay-station/safety"
	"github.com/avreplay/incident-replay-station/track"
)

// MapSink is the narrow capability the engine emits map data through. Any
// concrete map library is an adapter behind it, outside the core.
type MapSink interface {
	DrawMarker(lat, lon, heading float64, color string)
	DrawTrail(points []track.Sample, color string)
	Clear()
}

// SinkFactory creates the map sink for one event session. Its handles are
// owned by the session and released on teardown via Clear.
type SinkFactory func(eventID string) MapSink

// NopSink discards all draw calls; used when no map is attached
type NopSink struct{}

func (NopSink) DrawMarker(lat, lon, heading float64, color string) {}
func (NopSink) DrawTrail(points []track.Sample, color string)      {}
func (NopSink) Clear()                                             {}

// severityColor maps an event severity tier to a marker/trail color
func severityColor(severity string) string {
	switch severity {
	case safety.SeverityCritical:
		return "#dc2626"
	case safety.SeverityWarning:
		return "#ea580c"
	case safety.SeverityCaution:
		return "#ca8a04"
	default:
		return "#2563eb"
	}
}
