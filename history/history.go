// Package history stores recorded position samples in SQLite and serves
// them back to the replay engine. It plays the role of the external history
// service: FetchTrack returns rows newest-first, exactly as the live source
// systems deliver them, and the engine normalizes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/avreplay/incident-replay-station/track"
)

// Source adapts the archive to the track.Source contract
type Source struct{}

// FetchTrack returns up to limit samples for an aircraft within the given
// window, newest-first.
func (Source) FetchTrack(ctx context.Context, aircraftID string, windowHours, limit int) ([]track.Sample, error) {
	return FetchTrack(ctx, aircraftID, windowHours, limit)
}

// FetchTrack queries the archive for an aircraft's samples, newest-first
func FetchTrack(ctx context.Context, aircraftHex string, windowHours, limit int) ([]track.Sample, error) {
	if db == nil {
		return nil, fmt.Errorf("history database not initialized")
	}
	if windowHours <= 0 {
		windowHours = track.DefaultWindowHours
	}
	if limit <= 0 {
		limit = track.DefaultLimit
	}

	cutoff := time.Now().Add(-time.Duration(windowHours) * time.Hour).UnixMilli()

	query := `
		SELECT timestamp, lat, lon, altitude, ground_speed, vertical_rate, heading, callsign
		FROM sample
		WHERE aircraft_hex = ? AND timestamp >= ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, aircraftHex, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples for %s: %w", aircraftHex, err)
	}
	defer rows.Close()

	var samples []track.Sample
	for rows.Next() {
		var timestamp int64
		var lat, lon float64
		var altitude, groundSpeed, verticalRate, heading sql.NullFloat64
		var callsign sql.NullString

		err := rows.Scan(&timestamp, &lat, &lon, &altitude, &groundSpeed, &verticalRate, &heading, &callsign)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}

		samples = append(samples, track.Sample{
			Timestamp:    time.UnixMilli(timestamp),
			Lat:          lat,
			Lon:          lon,
			Altitude:     altitude.Float64,
			GroundSpeed:  groundSpeed.Float64,
			VerticalRate: verticalRate.Float64,
			Heading:      heading.Float64,
			Callsign:     callsign.String,
		})
	}

	return samples, rows.Err()
}

// InsertSamples bulk-inserts recorded samples for an aircraft in one
// transaction
func InsertSamples(aircraftHex string, samples []track.Sample) error {
	if db == nil {
		return fmt.Errorf("history database not initialized")
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples to insert")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO sample (
			aircraft_hex, timestamp, lat, lon, altitude,
			ground_speed, vertical_rate, heading, callsign
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.Prepare(insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err = stmt.Exec(
			aircraftHex, s.Timestamp.UnixMilli(), s.Lat, s.Lon, s.Altitude,
			s.GroundSpeed, s.VerticalRate, s.Heading, s.Callsign,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Ingested %d samples for %s", len(samples), aircraftHex)
	return nil
}
