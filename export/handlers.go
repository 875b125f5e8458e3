package export

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/avreplay/incident-replay-station/safety"
	"github.com/avreplay/incident-replay-station/track"
)

// TrackLookup resolves an open replay session's event and cached tracks
type TrackLookup func(eventID string) (safety.Event, map[string]track.Track, bool)

var lookup TrackLookup

// Init wires the export handlers to the session manager's track lookup
func Init(fn TrackLookup) {
	lookup = fn
}

func SetupHandlers() {
	http.HandleFunc("/export/xlsx", handleXLSXExport)
	http.HandleFunc("/export/csv", handleCSVExport)
}

func eventTracksFor(w http.ResponseWriter, r *http.Request) (safety.Event, map[string]track.Track, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return safety.Event{}, nil, false
	}

	eventID := r.URL.Query().Get("event")
	if eventID == "" {
		http.Error(w, "Event ID required", http.StatusBadRequest)
		return safety.Event{}, nil, false
	}

	event, tracks, ok := lookup(eventID)
	if !ok {
		http.Error(w, fmt.Sprintf("No open session for event %s", eventID), http.StatusNotFound)
		return safety.Event{}, nil, false
	}
	return event, tracks, true
}

func handleXLSXExport(w http.ResponseWriter, r *http.Request) {
	event, tracks, ok := eventTracksFor(w, r)
	if !ok {
		return
	}

	f, err := BuildWorkbook(event, tracks)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to build workbook: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	filename := GenerateFilename(event, "xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	if err := f.Write(w); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write workbook: %v", err), http.StatusInternalServerError)
		return
	}
}

func handleCSVExport(w http.ResponseWriter, r *http.Request) {
	event, tracks, ok := eventTracksFor(w, r)
	if !ok {
		return
	}

	buf, err := ExportTracksZIP(event, tracks)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate CSV files: %v", err), http.StatusInternalServerError)
		return
	}

	filename := GenerateFilename(event, "zip")
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))

	if _, err := w.Write(buf.Bytes()); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write export file: %v", err), http.StatusInternalServerError)
		return
	}
}
