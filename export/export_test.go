package export

import (
	"archive/zip"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avreplay/incident-replay-station/safety"
	"github.com/avreplay/incident-replay-station/track"
)

func exportFixture() (safety.Event, map[string]track.Track) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mkTrack := func(n int) track.Track {
		t := make(track.Track, n)
		for i := range t {
			t[i] = track.Sample{
				Timestamp:   base.Add(time.Duration(i) * 5 * time.Second),
				Lat:         45 + float64(i)*0.01,
				Lon:         -73,
				Altitude:    3000,
				GroundSpeed: 210,
				Heading:     180,
				Callsign:    "TST300",
			}
		}
		return t
	}

	event := safety.Event{
		ID:        "evt-exp",
		Type:      safety.TypeProximity,
		Severity:  safety.SeverityWarning,
		Aircraft:  []string{"a00001", "b00002"},
		Timestamp: base,
		Metrics:   safety.Metrics{MinSeparationNM: 1.5},
	}
	tracks := map[string]track.Track{
		"a00001": mkTrack(4),
		"b00002": mkTrack(6),
	}
	return event, tracks
}

func TestBuildWorkbook(t *testing.T) {
	event, tracks := exportFixture()

	f, err := BuildWorkbook(event, tracks)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Event")
	assert.Contains(t, sheets, "a00001")
	assert.Contains(t, sheets, "b00002")

	id, err := f.GetCellValue("Event", "B1")
	require.NoError(t, err)
	assert.Equal(t, "evt-exp", id)

	header, err := f.GetCellValue("a00001", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Timestamp", header)

	callsign, err := f.GetCellValue("b00002", "H2")
	require.NoError(t, err)
	assert.Equal(t, "TST300", callsign)
}

func TestBuildWorkbookSkipsMissingTracks(t *testing.T) {
	event, tracks := exportFixture()
	delete(tracks, "b00002")

	f, err := BuildWorkbook(event, tracks)
	require.NoError(t, err)
	defer f.Close()

	assert.NotContains(t, f.GetSheetList(), "b00002")
}

func TestExportTracksZIP(t *testing.T) {
	event, tracks := exportFixture()

	buf, err := ExportTracksZIP(event, tracks)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)

	names := []string{reader.File[0].Name, reader.File[1].Name}
	assert.Contains(t, names, "track_a00001.csv")
	assert.Contains(t, names, "track_b00002.csv")

	rc, err := reader.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	content := new(bytes.Buffer)
	_, err = content.ReadFrom(rc)
	require.NoError(t, err)
	assert.Contains(t, content.String(), "Timestamp,Latitude,Longitude")
	assert.Contains(t, content.String(), "TST300")
}

func TestGenerateFilename(t *testing.T) {
	event, _ := exportFixture()
	name := GenerateFilename(event, "xlsx")
	assert.Contains(t, name, "evt-exp")
	assert.Contains(t, name, "proximity")
	assert.Contains(t, name, ".xlsx")
}
