package autoschedule

import (
	"fmt"

	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

// Matrix is the assignment of events (rows) to slots (columns).
type Matrix [][]bool

// NewMatrix returns an all-false matrix of the given shape.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]bool, cols)
	}
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int {
	return len(m)
}

// Cols returns the number of columns; zero for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Get reads a cell, returning false outside the matrix.
func (m Matrix) Get(row, col int) bool {
	if row < 0 || row >= len(m) || col < 0 || col >= len(m[row]) {
		return false
	}
	return m[row][col]
}

// Set writes a cell; writes outside the matrix are ignored.
func (m Matrix) Set(row, col int, value bool) {
	if row < 0 || row >= len(m) || col < 0 || col >= len(m[row]) {
		return
	}
	m[row][col] = value
}

// Changes counts the cells that differ between two matrices of the same shape.
func (m Matrix) Changes(other Matrix) (int, error) {
	if m.Rows() != other.Rows() || m.Cols() != other.Cols() {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("matrix shape %dx%d does not match %dx%d", m.Rows(), m.Cols(), other.Rows(), other.Cols()))
	}
	changes := 0
	for i := range m {
		for j := range m[i] {
			if m[i][j] != other[i][j] {
				changes++
			}
		}
	}
	return changes, nil
}

// ScheduleToMatrix encodes the schedule with rows ordered as events and
// columns ordered as slots. Placements outside the universe are ignored.
func ScheduleToMatrix(schedule Schedule, events []Event, slots []Slot) Matrix {
	rows := make(map[EventID]int, len(events))
	for i, event := range events {
		rows[event.ID] = i
	}
	cols := make(map[SlotKey]int, len(slots))
	for j, slot := range slots {
		cols[slot.Key()] = j
	}

	m := NewMatrix(len(events), len(slots))
	for _, p := range schedule {
		i, okRow := rows[p.Event.ID]
		j, okCol := cols[p.Slot.Key()]
		if okRow && okCol {
			m.Set(i, j, true)
		}
	}
	return m
}

// MatrixToSchedule decodes a matrix back into placements. A row with more
// than one set cell is a caller error.
func MatrixToSchedule(m Matrix, events []Event, slots []Slot) (Schedule, error) {
	if m.Rows() != len(events) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("matrix has %d rows for %d events", m.Rows(), len(events)))
	}
	var schedule Schedule
	for i, row := range m {
		if len(row) != len(slots) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("matrix row %d has %d columns for %d slots", i, len(row), len(slots)))
		}
		col := -1
		for j, set := range row {
			if !set {
				continue
			}
			if col >= 0 {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("event %s is assigned to more than one slot", events[i].ID))
			}
			col = j
		}
		if col >= 0 {
			schedule = append(schedule, Placement{Event: events[i], Slot: slots[col]})
		}
	}
	return schedule, nil
}

// Universe labels the rows and columns of a matrix with stable identities.
type Universe struct {
	Events []EventID `json:"events"`
	Slots  []SlotKey `json:"slots"`
}

// UniverseOf builds the labels for the given events and slots.
func UniverseOf(events []Event, slots []Slot) Universe {
	u := Universe{
		Events: make([]EventID, len(events)),
		Slots:  make([]SlotKey, len(slots)),
	}
	for i, event := range events {
		u.Events[i] = event.ID
	}
	for j, slot := range slots {
		u.Slots[j] = slot.Key()
	}
	return u
}

// UniverseDelta summarises how two universes differ.
type UniverseDelta struct {
	EventsAdded   []EventID
	EventsRemoved []EventID
	SlotsAdded    []SlotKey
	SlotsRemoved  []SlotKey
}

// Delta compares u (the previous run) with next.
func (u Universe) Delta(next Universe) UniverseDelta {
	var d UniverseDelta
	oldEvents := make(EventSet, len(u.Events))
	for _, id := range u.Events {
		oldEvents.Add(id)
	}
	newEvents := make(EventSet, len(next.Events))
	for _, id := range next.Events {
		newEvents.Add(id)
		if !oldEvents.Has(id) {
			d.EventsAdded = append(d.EventsAdded, id)
		}
	}
	for _, id := range u.Events {
		if !newEvents.Has(id) {
			d.EventsRemoved = append(d.EventsRemoved, id)
		}
	}

	oldSlots := make(SlotSet, len(u.Slots))
	for _, key := range u.Slots {
		oldSlots.Add(key)
	}
	newSlots := make(SlotSet, len(next.Slots))
	for _, key := range next.Slots {
		newSlots.Add(key)
		if !oldSlots.Has(key) {
			d.SlotsAdded = append(d.SlotsAdded, key)
		}
	}
	for _, key := range u.Slots {
		if !newSlots.Has(key) {
			d.SlotsRemoved = append(d.SlotsRemoved, key)
		}
	}
	return d
}

// Reconcile carries a matrix computed over from onto the universe to. Rows of
// removed events and columns of removed slots are dropped by identity, the
// survivors are re-indexed and new events or slots get empty rows/columns.
func Reconcile(m Matrix, from, to Universe) (Matrix, error) {
	if m.Rows() != len(from.Events) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("matrix has %d rows but universe lists %d events", m.Rows(), len(from.Events)))
	}
	for i, row := range m {
		if len(row) != len(from.Slots) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("matrix row %d has %d columns but universe lists %d slots", i, len(row), len(from.Slots)))
		}
	}

	newRow := make(map[EventID]int, len(to.Events))
	for i, id := range to.Events {
		newRow[id] = i
	}
	newCol := make(map[SlotKey]int, len(to.Slots))
	for j, key := range to.Slots {
		newCol[key] = j
	}

	out := NewMatrix(len(to.Events), len(to.Slots))
	for i, id := range from.Events {
		ni, ok := newRow[id]
		if !ok {
			continue
		}
		for j, key := range from.Slots {
			if !m[i][j] {
				continue
			}
			if nj, ok := newCol[key]; ok {
				out[ni][nj] = true
			}
		}
	}
	return out, nil
}
