package sessions

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/avreplay/incident-replay-station/safety"
	"github.com/avreplay/incident-replay-station/track"
)

var (
	manager *Manager

	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
)

// Init wires the session manager to its track source and map sinks
func Init(source track.Source, sinks SinkFactory) {
	manager = NewManager(source, sinks)
}

// GetManager returns the session manager
func GetManager() *Manager {
	return manager
}

func SetupHandlers() {
	http.HandleFunc("/replay/open", handleOpen)
	http.HandleFunc("/replay/close", handleClose)
	http.HandleFunc("/replay/sessions", handleSessions)
	http.HandleFunc("/replay/state", handleState)
	http.HandleFunc("/replay/play", handlePlay)
	http.HandleFunc("/replay/pause", handlePause)
	http.HandleFunc("/replay/speed", handleSpeed)
	http.HandleFunc("/replay/position", handlePosition)
	http.HandleFunc("/replay/skip", handleSkip)
	http.HandleFunc("/replay/scrub", handleScrub)
	http.HandleFunc("/replay/scrub-config", handleScrubConfig)
	http.HandleFunc("/replay/sample", handleSample)
	http.HandleFunc("/replay/window", handleWindow)
	http.HandleFunc("/replay/zoom/wheel", handleZoomWheel)
	http.HandleFunc("/replay/zoom/drag", handleZoomDrag)
	http.HandleFunc("/replay/zoom/reset", handleZoomReset)
	http.HandleFunc("/replay/ws", handleWebSocket)
}

// sessionFor resolves the session named by the request's event parameter,
// writing the error response itself when the session is missing
func sessionFor(w http.ResponseWriter, r *http.Request) *Session {
	eventID := r.FormValue("event")
	if eventID == "" {
		http.Error(w, "Event ID required", http.StatusBadRequest)
		return nil
	}
	s, ok := manager.Get(eventID)
	if !ok {
		http.Error(w, fmt.Sprintf("No open session for event %s", eventID), http.StatusNotFound)
		return nil
	}
	return s
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func handleOpen(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	eventID := r.FormValue("event")
	if eventID == "" {
		http.Error(w, "Event ID required", http.StatusBadRequest)
		return
	}

	event, ok := safety.Get(eventID)
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown event %s", eventID), http.StatusNotFound)
		return
	}

	s, err := manager.Open(r.Context(), event)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open session: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		EventID string       `json:"event_id"`
		Event   safety.Event `json:"event"`
	}{s.EventID, s.Event})
}

func handleClose(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	eventID := r.FormValue("event")
	if eventID == "" {
		http.Error(w, "Event ID required", http.StatusBadRequest)
		return
	}

	if err := manager.Close(eventID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func handleSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(manager.OpenIDs())
}

func handleState(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(w, r)
	if s == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.ReplayState())
}

func handlePlay(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := sessionFor(w, r)
	if s == nil {
		return
	}
	s.Play()
	w.WriteHeader(http.StatusOK)
}

func handlePause(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := sessionFor(w, r)
	if s == nil {
		return
	}
	s.Pause()
	w.WriteHeader(http.StatusOK)
}

func handleSpeed(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	speed, err := strconv.ParseFloat(r.FormValue("speed"), 64)
	if err != nil || speed <= 0 {
		http.Error(w, "Invalid speed", http.StatusBadRequest)
		return
	}
	s.SetSpeed(speed)
	w.WriteHeader(http.StatusOK)
}

func handlePosition(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	position, err := strconv.ParseFloat(r.FormValue("position"), 64)
	if err != nil {
		http.Error(w, "Invalid position", http.StatusBadRequest)
		return
	}
	// Out-of-range positions are clamped, never rejected
	s.SetPosition(position)
	w.WriteHeader(http.StatusOK)
}

func handleSkip(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	switch r.FormValue("to") {
	case "start":
		s.SkipToStart()
	case "end":
		s.SkipToEnd()
	case "event":
		s.JumpToEvent()
	default:
		http.Error(w, "Skip target must be start, end or event", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func handleScrub(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	direction, err := strconv.Atoi(r.FormValue("direction"))
	if err != nil || direction == 0 {
		http.Error(w, "Invalid scrub direction", http.StatusBadRequest)
		return
	}
	fine := r.FormValue("fine") == "true"

	s.Scrub(direction, fine)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.ReplayState())
}

func handleScrubConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		coarse, _ := strconv.ParseFloat(r.FormValue("coarse"), 64)
		fine, _ := strconv.ParseFloat(r.FormValue("fine"), 64)
		SetScrubSteps(coarse, fine)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	coarse, fine := ScrubSteps()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Coarse float64 `json:"coarse"`
		Fine   float64 `json:"fine"`
	}{coarse, fine})
}

func handleSample(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	aircraft := r.FormValue("aircraft")
	if aircraft == "" {
		http.Error(w, "Aircraft identifier required", http.StatusBadRequest)
		return
	}

	// A nil sample is the valid "no data" state, not an error
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.CurrentSample(aircraft))
}

func handleWindow(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	aircraft := r.FormValue("aircraft")
	graph := GraphID(r.FormValue("graph"))
	if aircraft == "" || graph == "" {
		http.Error(w, "Aircraft and graph required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.VisibleWindow(aircraft, graph))
}

func handleZoomWheel(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	aircraft := r.FormValue("aircraft")
	graph := GraphID(r.FormValue("graph"))
	direction, err := strconv.Atoi(r.FormValue("direction"))
	if aircraft == "" || graph == "" || err != nil {
		http.Error(w, "Aircraft, graph and direction required", http.StatusBadRequest)
		return
	}

	s.ZoomWheel(aircraft, graph, direction)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.VisibleWindow(aircraft, graph))
}

func handleZoomDrag(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	aircraft := r.FormValue("aircraft")
	graph := GraphID(r.FormValue("graph"))
	dx, errDx := strconv.ParseFloat(r.FormValue("dx"), 64)
	width, errW := strconv.ParseFloat(r.FormValue("width"), 64)
	if aircraft == "" || graph == "" || errDx != nil || errW != nil {
		http.Error(w, "Aircraft, graph, dx and width required", http.StatusBadRequest)
		return
	}

	s.ZoomDrag(aircraft, graph, dx, width)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.VisibleWindow(aircraft, graph))
}

func handleZoomReset(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	aircraft := r.FormValue("aircraft")
	graph := GraphID(r.FormValue("graph"))
	if aircraft == "" || graph == "" {
		http.Error(w, "Aircraft and graph required", http.StatusBadRequest)
		return
	}

	s.ZoomReset(aircraft, graph)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.VisibleWindow(aircraft, graph))
}

// handleWebSocket attaches a consumer view to a session's tick stream. The
// read loop only watches for the client going away; all control flows over
// the HTTP endpoints.
func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(w, r)
	if s == nil {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.addClient(conn)

	go func() {
		defer s.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
