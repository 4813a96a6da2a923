package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduleRowsFixture() []ScheduleRow {
	day := time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC)
	return []ScheduleRow{
		{EventID: "ev-3", EventType: "talk", Venue: "tent", Session: "sat-am", StartsAt: day.Add(10 * time.Hour), EndsAt: day.Add(10*time.Hour + 30*time.Minute)},
		{EventID: "ev-1", EventType: "talk", Venue: "stage", Session: "sat-am", StartsAt: day.Add(10 * time.Hour), EndsAt: day.Add(10*time.Hour + 30*time.Minute)},
		{EventID: "ev-2", EventType: "workshop", Venue: "lab", Session: "sat-early", StartsAt: day.Add(9 * time.Hour), EndsAt: day.Add(10*time.Hour + 30*time.Minute)},
	}
}

func TestScheduleDatasetOrdersByStartThenVenue(t *testing.T) {
	data := ScheduleDataset(scheduleRowsFixture(), nil)

	require.Len(t, data.Rows, 3)
	assert.Equal(t, "ev-2", data.Rows[0][ColumnEventID])
	assert.Equal(t, "ev-1", data.Rows[1][ColumnEventID])
	assert.Equal(t, "ev-3", data.Rows[2][ColumnEventID])
	assert.Equal(t, "Sat 2026-07-18", data.Rows[0][ColumnDay])
	assert.Equal(t, "09:00", data.Rows[0][ColumnStart])
	assert.Equal(t, "10:30", data.Rows[0][ColumnEnd])
}

func TestScheduleDatasetRendersCSV(t *testing.T) {
	content, err := NewCSVExporter().Render(ScheduleDataset(scheduleRowsFixture(), nil))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Day,Start,End,Venue,Event,Type,Session", lines[0])
	assert.Equal(t, "Sat 2026-07-18,10:00,10:30,stage,ev-1,talk,sat-am", lines[2])
}

func TestScheduleDatasetRendersPDFWithAppendix(t *testing.T) {
	unscheduled := UnscheduledDataset([]string{"ev-9"})
	content, err := NewPDFExporter().RenderWithOptions(ScheduleDataset(scheduleRowsFixture(), nil), PDFOptions{
		Title:         "Camp schedule v3",
		Landscape:     true,
		Appendix:      &unscheduled,
		AppendixTitle: "Unscheduled events",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestPDFRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "empty")
	assert.Error(t, err)
}

func TestCSVNeutralizesFormulaCells(t *testing.T) {
	exporter := NewCSVExporter()
	exporter.Comma = ';'
	content, err := exporter.Render(Dataset{
		Headers: []string{ColumnVenue, ColumnEventID},
		Rows:    []map[string]string{{ColumnVenue: "=HYPERLINK(\"x\")", ColumnEventID: "ev-1"}},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Venue;Event", lines[0])
	assert.Equal(t, `"'=HYPERLINK(""x"")";ev-1`, lines[1])
}
