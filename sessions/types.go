package sessions

import (
	"github.com/avreplay/incident-replay-station/replay"
	"github.com/avreplay/incident-replay-station/track"
)

// GraphID names one flight-data graph metric
type GraphID string

const (
	GraphAltitude     GraphID = "altitude"
	GraphGroundSpeed  GraphID = "ground_speed"
	GraphVerticalRate GraphID = "vertical_rate"
	GraphHeading      GraphID = "heading"
)

// WindowView is the visible window of one graph: the percent bounds plus
// the vertical value range recomputed from only the samples inside them.
type WindowView struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	HasData   bool    `json:"has_data"`
	Indicator bool    `json:"indicator"` // playhead indicator drawn only inside the window
}

// TickFrame is pushed to every consumer view on each playhead change, so
// the map, the graphs and the timeline all render the identical instant.
type TickFrame struct {
	EventID string                   `json:"event_id"`
	State   replay.State             `json:"state"`
	Samples map[string]*track.Sample `json:"samples"` // keyed by aircraft hex; nil for tracks with insufficient data
}
