package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avreplay/incident-replay-station/replay"
	"github.com/avreplay/incident-replay-station/safety"
	"github.com/avreplay/incident-replay-station/track"
)

// fakeSource serves canned samples per aircraft, newest-first like the
// real history service
type fakeSource struct {
	samples map[string][]track.Sample
	failFor map[string]bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		samples: make(map[string][]track.Sample),
		failFor: make(map[string]bool),
	}
}

func (f *fakeSource) FetchTrack(ctx context.Context, aircraftID string, windowHours, limit int) ([]track.Sample, error) {
	if f.failFor[aircraftID] {
		return nil, errors.New("history service down")
	}
	return f.samples[aircraftID], nil
}

func sampleRamp(n int, latBase float64) []track.Sample {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	samples := make([]track.Sample, n)
	// newest-first, as the source systems deliver
	for i := 0; i < n; i++ {
		j := n - 1 - i
		samples[i] = track.Sample{
			Timestamp:   base.Add(time.Duration(j) * 5 * time.Second),
			Lat:         latBase + float64(j)*0.01,
			Lon:         -73.0,
			Altitude:    1000 + float64(j)*500,
			GroundSpeed: 200 + float64(j),
			Heading:     90,
		}
	}
	return samples
}

// recordingSink captures draw calls for assertions
type recordingSink struct {
	mutex   sync.Mutex
	markers int
	trails  int
	cleared bool
}

func (r *recordingSink) DrawMarker(lat, lon, heading float64, color string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.markers++
}

func (r *recordingSink) DrawTrail(points []track.Sample, color string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.trails++
}

func (r *recordingSink) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.cleared = true
}

func (r *recordingSink) counts() (int, int, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.markers, r.trails, r.cleared
}

func proximityEvent(aircraft ...string) safety.Event {
	return safety.Event{
		ID:        "evt-1",
		Type:      safety.TypeProximity,
		Severity:  safety.SeverityCritical,
		Aircraft:  aircraft,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC),
		Metrics:   safety.Metrics{MinSeparationNM: 0.8, ClosureRateKts: 240, AltDiffFt: 300},
	}
}

func newTestManager(t *testing.T, source track.Source, sink MapSink) *Manager {
	t.Helper()
	factory := SinkFactory(nil)
	if sink != nil {
		factory = func(string) MapSink { return sink }
	}
	m := NewManager(source, factory)
	t.Cleanup(m.CloseAll)
	return m
}

func TestOpenStartsAtEventInstant(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(5, 45.0)
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)

	state := s.ReplayState()
	assert.Equal(t, replay.EventPosition, state.Position)
	assert.False(t, state.IsPlaying)
}

func TestOpenIsIdempotent(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(5, 45.0)
	m := newTestManager(t, source, nil)

	first, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)
	second, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestOpenRejectsBadEvents(t *testing.T) {
	m := newTestManager(t, newFakeSource(), nil)

	_, err := m.Open(context.Background(), safety.Event{ID: "x"})
	assert.Error(t, err)

	_, err = m.Open(context.Background(), proximityEvent("a", "b", "c"))
	assert.Error(t, err)
}

func TestSharedPlayheadAcrossAircraft(t *testing.T) {
	// Two aircraft in one event share one playhead but resolve their own
	// tracks independently
	source := newFakeSource()
	source.samples["a00001"] = sampleRamp(5, 45.0)
	source.samples["b00002"] = sampleRamp(9, 50.0)
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("a00001", "b00002"))
	require.NoError(t, err)

	s.SetPosition(50)

	first := s.CurrentSample("a00001")
	second := s.CurrentSample("b00002")
	require.NotNil(t, first)
	require.NotNil(t, second)

	// index 2 of 5 and index 4 of 9
	assert.InDelta(t, 45.02, first.Lat, 1e-9)
	assert.InDelta(t, 50.04, second.Lat, 1e-9)
}

func TestPartialFetchFailureIsolation(t *testing.T) {
	source := newFakeSource()
	source.samples["good01"] = sampleRamp(5, 45.0)
	source.failFor["bad001"] = true
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("good01", "bad001"))
	require.NoError(t, err)

	s.SetPosition(50)
	assert.NotNil(t, s.CurrentSample("good01"))
	assert.Nil(t, s.CurrentSample("bad001"))
}

func TestCurrentSampleInsufficientData(t *testing.T) {
	source := newFakeSource()
	source.samples["single"] = sampleRamp(1, 45.0)
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("single"))
	require.NoError(t, err)
	assert.Nil(t, s.CurrentSample("single"))
}

func TestVisibleWindowZoomedSlice(t *testing.T) {
	// 11 samples, altitude ramp 1000..6000. zoom=4, offset=30 shows
	// [30,55], indices 3..5, so the vertical range comes from that slice
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(11, 45.0)
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		s.ZoomWheel("abc123", GraphAltitude, 1)
	}
	s.ZoomDrag("abc123", GraphAltitude, 480, 400) // (480/400)*25 = 30 percent

	s.SetPosition(40)
	view := s.VisibleWindow("abc123", GraphAltitude)
	assert.InDelta(t, 30.0, view.Start, 1e-9)
	assert.InDelta(t, 55.0, view.End, 1e-9)
	require.True(t, view.HasData)
	assert.InDelta(t, 1000+3*500, view.Min, 1e-9)
	assert.InDelta(t, 1000+5*500, view.Max, 1e-9)
	assert.True(t, view.Indicator)

	// Scrubbed outside the window the indicator is hidden
	s.SetPosition(80)
	view = s.VisibleWindow("abc123", GraphAltitude)
	assert.False(t, view.Indicator)
}

func TestVisibleWindowFullRangeByDefault(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(11, 45.0)
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)

	view := s.VisibleWindow("abc123", GraphGroundSpeed)
	assert.Equal(t, 0.0, view.Start)
	assert.Equal(t, 100.0, view.End)
	require.True(t, view.HasData)
	assert.Equal(t, 200.0, view.Min)
	assert.Equal(t, 210.0, view.Max)
}

func TestZoomResetPerGraph(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(11, 45.0)
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)

	s.ZoomWheel("abc123", GraphAltitude, 1)
	s.ZoomWheel("abc123", GraphHeading, 1)
	s.ZoomReset("abc123", GraphAltitude)

	assert.Equal(t, 100.0, s.VisibleWindow("abc123", GraphAltitude).End)
	assert.InDelta(t, 80.0, s.VisibleWindow("abc123", GraphHeading).End, 1e-9)
}

func TestManualScrubInterruptsPlayback(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(5, 45.0)
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)

	s.SetPosition(0)
	s.Play()
	s.Scrub(1, false)

	state := s.ReplayState()
	assert.False(t, state.IsPlaying)
	assert.InDelta(t, ScrubStep(false), state.Position, 1.0)
}

func TestScrubSteps(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(5, 45.0)
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)

	s.SetPosition(50)
	s.Scrub(1, false)
	assert.InDelta(t, 51.0, s.ReplayState().Position, 1e-9)

	s.Scrub(-1, true)
	assert.InDelta(t, 50.9, s.ReplayState().Position, 1e-9)
}

func TestSinkReceivesTrailAndMarkers(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(5, 45.0)
	sink := &recordingSink{}
	m := newTestManager(t, source, sink)

	s, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)

	_, trails, _ := sink.counts()
	assert.Equal(t, 1, trails)

	markersBefore, _, _ := sink.counts()
	s.SetPosition(75)
	markersAfter, _, _ := sink.counts()
	assert.Greater(t, markersAfter, markersBefore-1)

	require.NoError(t, m.Close("evt-1"))
	_, _, cleared := sink.counts()
	assert.True(t, cleared)
}

func TestCloseTearsDownSession(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(5, 45.0)
	m := newTestManager(t, source, nil)

	s, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)
	s.Play()

	require.NoError(t, m.Close("evt-1"))
	_, ok := m.Get("evt-1")
	assert.False(t, ok)

	// Teardown cancelled the pending frame
	assert.False(t, s.ReplayState().IsPlaying)

	assert.Error(t, m.Close("evt-1"))
}

func TestSessionsAreIndependent(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(5, 45.0)
	source.samples["def456"] = sampleRamp(5, 50.0)
	m := newTestManager(t, source, nil)

	eventA := proximityEvent("abc123")
	eventB := proximityEvent("def456")
	eventB.ID = "evt-2"

	first, err := m.Open(context.Background(), eventA)
	require.NoError(t, err)
	second, err := m.Open(context.Background(), eventB)
	require.NoError(t, err)

	first.SetPosition(10)
	second.SetPosition(90)

	assert.InDelta(t, 10.0, first.ReplayState().Position, 1e-9)
	assert.InDelta(t, 90.0, second.ReplayState().Position, 1e-9)
}

func TestEventTracks(t *testing.T) {
	source := newFakeSource()
	source.samples["abc123"] = sampleRamp(5, 45.0)
	m := newTestManager(t, source, nil)

	_, err := m.Open(context.Background(), proximityEvent("abc123"))
	require.NoError(t, err)

	event, tracks, ok := m.EventTracks("evt-1")
	require.True(t, ok)
	assert.Equal(t, "evt-1", event.ID)
	assert.Len(t, tracks, 1)
	assert.Equal(t, 5, tracks["abc123"].Len())

	_, _, ok = m.EventTracks("nope")
	assert.False(t, ok)
}
