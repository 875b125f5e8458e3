package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/avreplay/incident-replay-station/export"
	"github.com/avreplay/incident-replay-station/history"
	"github.com/avreplay/incident-replay-station/safety"
	"github.com/avreplay/incident-replay-station/sessions"
)

func main() {
	safety.Init()
	if err := history.InitDatabase(""); err != nil {
		log.Fatalf("Failed to initialize history database: %v", err)
	}
	sessions.Init(history.Source{}, nil)
	export.Init(sessions.GetManager().EventTracks)

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutting down gracefully...")
		sessions.GetManager().CloseAll()
		safety.Close()
		if err := history.CloseDatabase(); err != nil {
			log.Printf("Error closing history database: %v", err)
		}
		os.Exit(0)
	}()

	safety.SetupHandlers()
	history.SetupHandlers()
	sessions.SetupHandlers()
	export.SetupHandlers()

	log.Printf("Server started at http://127.0.0.1:8080")
	http.ListenAndServe(":8080", nil)
}
