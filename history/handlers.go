package history

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/avreplay/incident-replay-station/track"
)

func SetupHandlers() {
	http.HandleFunc("/history/ingest", handleIngest)
	http.HandleFunc("/history/track", handleGetTrack)
}

func handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var data struct {
		Aircraft string         `json:"aircraft"`
		Samples  []track.Sample `json:"samples"`
	}

	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if data.Aircraft == "" {
		http.Error(w, "Aircraft identifier required", http.StatusBadRequest)
		return
	}

	if err := InsertSamples(data.Aircraft, data.Samples); err != nil {
		http.Error(w, fmt.Sprintf("Failed to ingest samples: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func handleGetTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	aircraft := r.URL.Query().Get("aircraft")
	if aircraft == "" {
		http.Error(w, "Aircraft identifier required", http.StatusBadRequest)
		return
	}

	hours, _ := strconv.Atoi(r.URL.Query().Get("hours"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	samples, err := FetchTrack(r.Context(), aircraft, hours, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch track: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Aircraft string         `json:"aircraft"`
		Count    int            `json:"count"`
		Samples  []track.Sample `json:"samples"`
	}{aircraft, len(samples), samples})
}
