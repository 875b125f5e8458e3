package safety

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	mutex   = &sync.Mutex{}
	events  []Event
	byID    = map[string]Event{}
	logFile *os.File
)

func Init() {
	// Create log file with current timestamp
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join("logs", fmt.Sprintf("safety_%s.log", timestamp))

	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
		return
	}

	var err error
	logFile, err = os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
		return
	}

	logFile.WriteString(fmt.Sprintf("=== Safety Event Log Started at %s ===\n", time.Now().Format("2006-01-02 15:04:05")))
}

// Record registers a classified event and appends it to the log file
func Record(event Event) {
	mutex.Lock()
	defer mutex.Unlock()
	events = append(events, event)
	byID[event.ID] = event

	if logFile == nil {
		return
	}

	// Format: [timestamp] SEVERITY event_type: aircraft list
	logLine := fmt.Sprintf("[%s] %s %s: %s\n",
		event.Timestamp.Format("2006-01-02 15:04:05"),
		strings.ToUpper(event.Severity),
		event.Type,
		strings.Join(event.Aircraft, " / "))

	if _, err := logFile.WriteString(logLine); err != nil {
		log.Printf("Failed to write to log file: %v", err)
	}
}

// Get returns a registered event by ID
func Get(id string) (Event, bool) {
	mutex.Lock()
	defer mutex.Unlock()
	event, ok := byID[id]
	return event, ok
}

// GetEvents returns the recent events (last 50)
func GetEvents() []Event {
	mutex.Lock()
	defer mutex.Unlock()

	start := 0
	if len(events) > 50 {
		start = len(events) - 50
	}
	return events[start:]
}

// Close closes the event log file
func Close() {
	mutex.Lock()
	defer mutex.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
