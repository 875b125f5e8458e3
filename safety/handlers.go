package safety

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

func SetupHandlers() {
	http.HandleFunc("/safety/events", handleEvents)
}

// handleEvents lists recent events newest-first on GET and registers a
// pre-classified event on POST. Classification itself happens upstream;
// this core only consumes the result.
func handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		eventsList := GetEvents()

		// Reverse the events to show newest first
		reversed := make([]Event, len(eventsList))
		for i, j := 0, len(eventsList)-1; i < len(eventsList); i, j = i+1, j-1 {
			reversed[i] = eventsList[j]
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reversed)

	case http.MethodPost:
		var event Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		if event.ID == "" || len(event.Aircraft) == 0 || len(event.Aircraft) > 2 {
			http.Error(w, "Event requires an id and one or two aircraft", http.StatusBadRequest)
			return
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}

		Record(event)
		w.WriteHeader(http.StatusCreated)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
