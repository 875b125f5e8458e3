// Package sessions synchronizes one playhead across every view of a
// displayed safety event. A Session bundles the replay controller, the
// per-graph zoom windows, the cached tracks and the map-sink handles for
// one event; the Manager owns all sessions keyed by event ID and guarantees
// teardown when an event view is closed.
package sessions

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/avreplay/incident-replay-station/replay"
	"github.com/avreplay/incident-replay-station/safety"
	"github.com/avreplay/incident-replay-station/track"
	"github.com/avreplay/incident-replay-station/zoom"
)

// Session is the replay state for one displayed event. Two aircraft within
// one event share one playhead but each resolves its own track.
//
// Locking: zoomMux guards the zoom windows, clientsMux the websocket
// clients. Controller calls are never made under either mutex, and the
// controller's tick callback never takes zoomMux, so playback and gestures
// cannot deadlock.
type Session struct {
	EventID string
	Event   safety.Event

	controller *replay.Controller
	store      *track.Store
	sink       MapSink

	zoomMux sync.Mutex
	zooms   map[string]*zoom.Window

	clientsMux sync.Mutex
	clients    map[*websocket.Conn]bool
}

// Manager owns every open replay session, keyed by event ID. Sessions are
// independent: no mutable state is shared across events.
type Manager struct {
	mutex    sync.Mutex
	sessions map[string]*Session

	store *track.Store
	sinks SinkFactory
}

// NewManager creates a manager fetching tracks from the given source.
// sinks may be nil, in which case sessions draw into a NopSink.
func NewManager(source track.Source, sinks SinkFactory) *Manager {
	if sinks == nil {
		sinks = func(string) MapSink { return NopSink{} }
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    track.NewStore(source),
		sinks:    sinks,
	}
}

// Open creates the replay session for an event, fetching each referenced
// aircraft's track. A fetch failure for one aircraft leaves that aircraft's
// views empty and does not affect the others. Opening an already-open event
// returns the existing session.
func (m *Manager) Open(ctx context.Context, event safety.Event) (*Session, error) {
	if event.ID == "" {
		return nil, fmt.Errorf("event id required")
	}
	if len(event.Aircraft) == 0 || len(event.Aircraft) > 2 {
		return nil, fmt.Errorf("event %s references %d aircraft, want 1 or 2", event.ID, len(event.Aircraft))
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if s, exists := m.sessions[event.ID]; exists {
		return s, nil
	}

	s := &Session{
		EventID: event.ID,
		Event:   event,
		store:   m.store,
		sink:    m.sinks(event.ID),
		zooms:   make(map[string]*zoom.Window),
		clients: make(map[*websocket.Conn]bool),
	}
	s.controller = replay.NewController(func(state replay.State) {
		s.publish(state)
	})

	for _, hex := range event.Aircraft {
		t, err := m.store.Fetch(ctx, hex)
		if err != nil {
			log.Printf("Track fetch failed for %s in event %s: %v", hex, event.ID, err)
			continue
		}
		s.sink.DrawTrail(t, severityColor(event.Severity))
	}

	// The event instant sits at playhead 50 by convention
	s.controller.JumpToEvent()
	s.publish(s.controller.State())

	m.sessions[event.ID] = s
	log.Printf("Opened replay session for event %s (%s, %s)", event.ID, event.Type, event.Severity)
	return s, nil
}

// Get returns the open session for an event
func (m *Manager) Get(eventID string) (*Session, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	s, ok := m.sessions[eventID]
	return s, ok
}

// Close tears down the session for an event: the pending frame is cancelled
// synchronously, map handles are released and websocket clients are closed.
func (m *Manager) Close(eventID string) error {
	m.mutex.Lock()
	s, ok := m.sessions[eventID]
	if ok {
		delete(m.sessions, eventID)
	}
	m.mutex.Unlock()

	if !ok {
		return fmt.Errorf("no open session for event %s", eventID)
	}

	s.teardown()
	log.Printf("Closed replay session for event %s", eventID)
	return nil
}

// CloseAll tears down every open session
func (m *Manager) CloseAll() {
	m.mutex.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mutex.Unlock()

	for _, s := range sessions {
		s.teardown()
	}
}

// OpenIDs returns the IDs of all open sessions
func (m *Manager) OpenIDs() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// EventTracks returns the event and its cached tracks, for export
func (m *Manager) EventTracks(eventID string) (safety.Event, map[string]track.Track, bool) {
	m.mutex.Lock()
	s, ok := m.sessions[eventID]
	m.mutex.Unlock()
	if !ok {
		return safety.Event{}, nil, false
	}

	tracks := make(map[string]track.Track)
	for _, hex := range s.Event.Aircraft {
		if t, ok := s.store.Get(hex); ok {
			tracks[hex] = t
		}
	}
	return s.Event, tracks, true
}

func (s *Session) teardown() {
	s.controller.Close()
	s.sink.Clear()

	s.clientsMux.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMux.Unlock()
}

// ReplayState returns the shared replay state
func (s *Session) ReplayState() replay.State {
	return s.controller.State()
}

// CurrentSample resolves the sample under the shared playhead for one
// aircraft. Returns nil when the track is absent or holds fewer than two
// samples.
func (s *Session) CurrentSample(aircraftID string) *track.Sample {
	t, ok := s.store.Get(aircraftID)
	if !ok {
		return nil
	}
	return track.Resolve(t, s.controller.State().Position)
}

// Playback controls. Every manual change publishes a frame so all views
// observe the exact new position immediately.

func (s *Session) Play() {
	s.controller.Play()
}

func (s *Session) Pause() {
	s.controller.Pause()
	s.publish(s.controller.State())
}

func (s *Session) SetSpeed(speed float64) {
	s.controller.SetSpeed(speed)
}

// SetPosition is a manual scrub; it always interrupts playback
func (s *Session) SetPosition(position float64) {
	s.controller.SetPosition(position)
	s.publish(s.controller.State())
}

func (s *Session) SkipToStart() {
	s.controller.SkipToStart()
	s.publish(s.controller.State())
}

func (s *Session) SkipToEnd() {
	s.controller.SkipToEnd()
	s.publish(s.controller.State())
}

func (s *Session) JumpToEvent() {
	s.controller.JumpToEvent()
	s.publish(s.controller.State())
}

// Scrub nudges the playhead by the configured wheel step, fine or coarse
func (s *Session) Scrub(direction int, fine bool) {
	step := ScrubStep(fine)
	if direction < 0 {
		step = -step
	}
	s.SetPosition(s.controller.State().Position + step)
}

// Zoom gestures, keyed per aircraft and graph

func zoomKey(aircraftID string, graph GraphID) string {
	return aircraftID + "/" + string(graph)
}

func (s *Session) window(aircraftID string, graph GraphID) *zoom.Window {
	key := zoomKey(aircraftID, graph)
	w, ok := s.zooms[key]
	if !ok {
		w = zoom.NewWindow()
		s.zooms[key] = w
	}
	return w
}

// ZoomWheel applies a wheel-zoom gesture to one graph
func (s *Session) ZoomWheel(aircraftID string, graph GraphID, direction int) {
	s.zoomMux.Lock()
	defer s.zoomMux.Unlock()
	s.window(aircraftID, graph).Wheel(direction)
}

// ZoomDrag pans one graph's window by a pixel delta
func (s *Session) ZoomDrag(aircraftID string, graph GraphID, pixelDeltaX, graphWidthPx float64) {
	s.zoomMux.Lock()
	defer s.zoomMux.Unlock()
	s.window(aircraftID, graph).Drag(pixelDeltaX, graphWidthPx)
}

// ZoomReset returns one graph to the fully zoomed-out window
func (s *Session) ZoomReset(aircraftID string, graph GraphID) {
	s.zoomMux.Lock()
	defer s.zoomMux.Unlock()
	s.window(aircraftID, graph).Reset()
}

// VisibleWindow returns the visible window for one graph, with the vertical
// value range recomputed from only the samples inside it. The horizontal
// index mapping still derives from the full sample range; only the Y domain
// floats with the zoom.
func (s *Session) VisibleWindow(aircraftID string, graph GraphID) WindowView {
	s.zoomMux.Lock()
	start, end := s.window(aircraftID, graph).Bounds()
	s.zoomMux.Unlock()

	view := WindowView{Start: start, End: end}
	view.Indicator = zoom.IndicatorVisible(s.controller.State().Position, start, end)

	t, ok := s.store.Get(aircraftID)
	if !ok || len(t) < 2 {
		return view
	}

	lo, hi := zoom.VisibleIndexRange(len(t), start, end)
	values := metricValues(t, graph)
	if min, max, ok := zoom.SeriesRange(values, lo, hi); ok {
		view.Min, view.Max, view.HasData = min, max, true
	}
	return view
}

// metricValues extracts one graph's series from a track
func metricValues(t track.Track, graph GraphID) []float64 {
	values := make([]float64, len(t))
	for i, s := range t {
		switch graph {
		case GraphGroundSpeed:
			values[i] = s.GroundSpeed
		case GraphVerticalRate:
			values[i] = s.VerticalRate
		case GraphHeading:
			values[i] = s.Heading
		default:
			values[i] = s.Altitude
		}
	}
	return values
}

// publish fans one replay state out to every consumer: the map sink gets a
// marker per aircraft, websocket clients get the full tick frame. Called
// from the controller's frame task and after every manual control, so no
// consumer can read a stale or independently derived position.
func (s *Session) publish(state replay.State) {
	frame := TickFrame{
		EventID: s.EventID,
		State:   state,
		Samples: make(map[string]*track.Sample),
	}

	color := severityColor(s.Event.Severity)
	for _, hex := range s.Event.Aircraft {
		t, ok := s.store.Get(hex)
		if !ok {
			frame.Samples[hex] = nil
			continue
		}
		sample := track.Resolve(t, state.Position)
		frame.Samples[hex] = sample
		if sample != nil {
			s.sink.DrawMarker(sample.Lat, sample.Lon, sample.Heading, color)
		}
	}

	s.broadcast(frame)
}

// broadcast sends a tick frame to all websocket clients of this session
func (s *Session) broadcast(frame TickFrame) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()
	for client := range s.clients {
		if err := client.WriteJSON(frame); err != nil {
			log.Printf("Error sending tick frame to client: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}

// addClient registers a websocket consumer and immediately sends it the
// current frame so it never starts from a stale position
func (s *Session) addClient(conn *websocket.Conn) {
	s.clientsMux.Lock()
	s.clients[conn] = true
	s.clientsMux.Unlock()
	s.publish(s.controller.State())
}

func (s *Session) removeClient(conn *websocket.Conn) {
	s.clientsMux.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
	s.clientsMux.Unlock()
}
