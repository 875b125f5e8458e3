// Package export produces downloadable XLSX and CSV/ZIP files of the
// tracks behind a replayed safety event.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/avreplay/incident-replay-station/safety"
	"github.com/avreplay/incident-replay-station/track"
)

// sampleHeader is the column layout shared by both export formats
var sampleHeader = []string{
	"Timestamp", "Latitude", "Longitude", "Altitude",
	"GroundSpeed", "VerticalRate", "Heading", "Callsign",
}

func sampleRow(s track.Sample) []interface{} {
	return []interface{}{
		s.Timestamp.Format(time.RFC3339),
		s.Lat, s.Lon, s.Altitude,
		s.GroundSpeed, s.VerticalRate, s.Heading, s.Callsign,
	}
}

// BuildWorkbook creates an XLSX workbook with one worksheet per aircraft
// track plus an event summary sheet
func BuildWorkbook(event safety.Event, tracks map[string]track.Track) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", "Event"); err != nil {
		return nil, fmt.Errorf("failed to rename summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, event, tracks); err != nil {
		return nil, err
	}

	for _, hex := range event.Aircraft {
		t, ok := tracks[hex]
		if !ok {
			continue
		}
		if err := writeTrackSheet(f, hex, t); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func writeSummarySheet(f *excelize.File, event safety.Event, tracks map[string]track.Track) error {
	rows := [][]interface{}{
		{"Event ID", event.ID},
		{"Type", event.Type},
		{"Severity", event.Severity},
		{"Occurred", event.Timestamp.Format(time.RFC3339)},
		{"Min Separation (NM)", event.Metrics.MinSeparationNM},
		{"Closure Rate (kts)", event.Metrics.ClosureRateKts},
		{"Altitude Diff (ft)", event.Metrics.AltDiffFt},
	}

	for _, hex := range event.Aircraft {
		samples := 0
		distance := 0.0
		if t, ok := tracks[hex]; ok {
			samples = len(t)
			distance = track.PathDistanceNM(t)
		}
		rows = append(rows,
			[]interface{}{fmt.Sprintf("Aircraft %s samples", hex), samples},
			[]interface{}{fmt.Sprintf("Aircraft %s path (NM)", hex), distance},
		)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow("Event", cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}

func writeTrackSheet(f *excelize.File, aircraftHex string, t track.Track) error {
	if _, err := f.NewSheet(aircraftHex); err != nil {
		return fmt.Errorf("failed to create sheet for %s: %w", aircraftHex, err)
	}

	header := make([]interface{}, len(sampleHeader))
	for i, h := range sampleHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(aircraftHex, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", aircraftHex, err)
	}

	for i, s := range t {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		row := sampleRow(s)
		if err := f.SetSheetRow(aircraftHex, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", aircraftHex, err)
		}
	}
	return nil
}

// ExportTracksZIP exports the event's tracks as one CSV file per aircraft
// bundled in a ZIP archive
func ExportTracksZIP(event safety.Event, tracks map[string]track.Track) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	for _, hex := range event.Aircraft {
		t, ok := tracks[hex]
		if !ok {
			continue
		}

		data, err := generateTrackCSV(t)
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSV for %s: %w", hex, err)
		}

		file, err := w.Create(fmt.Sprintf("track_%s.csv", hex))
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV file in zip: %w", err)
		}
		if _, err := file.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write CSV data: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}

	return buf, nil
}

func generateTrackCSV(t track.Track) ([]byte, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	if err := writer.Write(sampleHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, s := range t {
		row := []string{
			s.Timestamp.Format(time.RFC3339),
			fmt.Sprintf("%.6f", s.Lat),
			fmt.Sprintf("%.6f", s.Lon),
			fmt.Sprintf("%.1f", s.Altitude),
			fmt.Sprintf("%.1f", s.GroundSpeed),
			fmt.Sprintf("%.1f", s.VerticalRate),
			fmt.Sprintf("%.1f", s.Heading),
			s.Callsign,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// GenerateFilename generates a download filename for an event export
func GenerateFilename(event safety.Event, extension string) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("event_%s_%s_%s.%s", event.ID, event.Type, timestamp, extension)
}
