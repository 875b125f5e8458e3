package safety

import "time"

// Severity tiers assigned by the external classification backend
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityCaution  = "caution"
	SeverityInfo     = "info"
)

// Event types produced by the classifier
const (
	TypeProximity         = "proximity"
	TypeRunwayIncursion   = "runway_incursion"
	TypeAltitudeDeviation = "altitude_deviation"
	TypeTCASRA            = "tcas_ra"
)

// Metrics holds the detail figures computed by the classifier
type Metrics struct {
	MinSeparationNM float64 `json:"min_separation_nm"`
	ClosureRateKts  float64 `json:"closure_rate_kts"`
	AltDiffFt       float64 `json:"alt_diff_ft"`
}

// Event is an externally classified conflict/incident anchoring a replay
// session. It references one or two aircraft; its occurrence instant
// corresponds to playhead position 50 by convention.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Aircraft  []string  `json:"aircraft"` // one or two aircraft hex identifiers
	Timestamp time.Time `json:"timestamp"`
	Metrics   Metrics   `json:"metrics"`
}
