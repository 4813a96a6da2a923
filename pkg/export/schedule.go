package export

import (
	"sort"
	"time"
)

// Schedule column headers shared by the CSV and PDF renderings.
const (
	ColumnDay       = "Day"
	ColumnStart     = "Start"
	ColumnEnd       = "End"
	ColumnVenue     = "Venue"
	ColumnEventID   = "Event"
	ColumnEventType = "Type"
	ColumnSession   = "Session"
)

// ScheduleRow is one placed event.
type ScheduleRow struct {
	EventID   string
	EventType string
	Venue     string
	Session   string
	StartsAt  time.Time
	EndsAt    time.Time
}

// ScheduleDataset lays out placements chronologically, then by venue.
// Times are rendered in loc; nil means UTC.
func ScheduleDataset(rows []ScheduleRow, loc *time.Location) Dataset {
	if loc == nil {
		loc = time.UTC
	}
	sorted := make([]ScheduleRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartsAt.Equal(sorted[j].StartsAt) {
			return sorted[i].StartsAt.Before(sorted[j].StartsAt)
		}
		if sorted[i].Venue != sorted[j].Venue {
			return sorted[i].Venue < sorted[j].Venue
		}
		return sorted[i].EventID < sorted[j].EventID
	})

	data := Dataset{
		Headers: []string{ColumnDay, ColumnStart, ColumnEnd, ColumnVenue, ColumnEventID, ColumnEventType, ColumnSession},
		Rows:    make([]map[string]string, 0, len(sorted)),
	}
	for _, row := range sorted {
		start := row.StartsAt.In(loc)
		end := row.EndsAt.In(loc)
		data.Rows = append(data.Rows, map[string]string{
			ColumnDay:       start.Format("Mon 2006-01-02"),
			ColumnStart:     start.Format("15:04"),
			ColumnEnd:       end.Format("15:04"),
			ColumnVenue:     row.Venue,
			ColumnEventID:   row.EventID,
			ColumnEventType: row.EventType,
			ColumnSession:   row.Session,
		})
	}
	return data
}

// UnscheduledDataset lists events the solver left out.
func UnscheduledDataset(eventIDs []string) Dataset {
	data := Dataset{Headers: []string{ColumnEventID}, Rows: make([]map[string]string, 0, len(eventIDs))}
	for _, id := range eventIDs {
		data.Rows = append(data.Rows, map[string]string{ColumnEventID: id})
	}
	return data
}
