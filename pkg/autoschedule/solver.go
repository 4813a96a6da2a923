package autoschedule

import (
	"context"
	"fmt"
	"sort"

	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

// Problem is one scheduling run.
type Problem struct {
	Events    []Event
	Slots     []Slot
	Objective Objective // nil means MaximizeScheduled
}

// Result is what a solver found.
type Result struct {
	Schedule    Schedule
	Unscheduled []Event
	Score       int64
	// Optimal is false when the search budget ran out before the incumbent
	// was proven optimal.
	Optimal   bool
	Nodes     int
	Objective string
}

// Solver assigns events to slots honouring every hard constraint.
type Solver interface {
	Solve(ctx context.Context, p Problem) (*Result, error)
}

// model is the precomputed, index-based form of a problem shared by solvers.
type model struct {
	events  []Event
	slots   []Slot
	weights [][]int64

	// candidates[i] lists usable slot indices for event i, best first.
	candidates [][]int
	// venueClash[j] lists slots in the same venue overlapping slot j, j included.
	venueClash [][]int
	// timeClash[j] lists slots in any venue overlapping slot j, j included.
	timeClash [][]int
	// conflicts[i] lists events that may not overlap event i in time.
	conflicts [][]int
	// order is the event visiting order.
	order     []int
	objective string
}

func newModel(p Problem) (*model, error) {
	if err := Validate(p.Events, p.Slots); err != nil {
		return nil, err
	}
	objective := p.Objective
	if objective == nil {
		objective = MaximizeScheduled()
	}
	weights, err := objective.Weights(p.Events, p.Slots)
	if err != nil {
		return nil, err
	}
	if len(weights) != len(p.Events) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("objective %s returned %d rows for %d events", objective.Name(), len(weights), len(p.Events)))
	}

	m := &model{
		events:     p.Events,
		slots:      p.Slots,
		weights:    weights,
		candidates: make([][]int, len(p.Events)),
		venueClash: make([][]int, len(p.Slots)),
		timeClash:  make([][]int, len(p.Slots)),
		conflicts:  make([][]int, len(p.Events)),
		objective:  objective.Name(),
	}

	for j, a := range p.Slots {
		for k, b := range p.Slots {
			if !a.Overlaps(b) {
				continue
			}
			m.timeClash[j] = append(m.timeClash[j], k)
			if a.Venue == b.Venue {
				m.venueClash[j] = append(m.venueClash[j], k)
			}
		}
	}

	for i, event := range p.Events {
		if len(weights[i]) != len(p.Slots) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("objective %s row %d has %d columns for %d slots", objective.Name(), i, len(weights[i]), len(p.Slots)))
		}
		for j, slot := range p.Slots {
			if weights[i][j] > 0 && event.CanUse(slot) {
				m.candidates[i] = append(m.candidates[i], j)
			}
		}
		row := weights[i]
		cands := m.candidates[i]
		sort.SliceStable(cands, func(a, b int) bool {
			sa, sb := p.Slots[cands[a]], p.Slots[cands[b]]
			if row[cands[a]] != row[cands[b]] {
				return row[cands[a]] > row[cands[b]]
			}
			if !sa.StartsAt.Equal(sb.StartsAt) {
				return sa.StartsAt.Before(sb.StartsAt)
			}
			return sa.Venue < sb.Venue
		})

		for k, other := range p.Events {
			if k != i && event.ConflictsWith(other) {
				m.conflicts[i] = append(m.conflicts[i], k)
			}
		}
	}

	m.order = make([]int, len(p.Events))
	for i := range m.order {
		m.order[i] = i
	}
	sort.SliceStable(m.order, func(a, b int) bool {
		ea, eb := m.order[a], m.order[b]
		if len(m.candidates[ea]) != len(m.candidates[eb]) {
			return len(m.candidates[ea]) < len(m.candidates[eb])
		}
		return p.Events[ea].ID < p.Events[eb].ID
	})
	return m, nil
}

func (m *model) result(assigned []int, score int64, optimal bool, nodes int) *Result {
	res := &Result{Score: score, Optimal: optimal, Nodes: nodes, Objective: m.objective}
	for i, j := range assigned {
		if j < 0 {
			res.Unscheduled = append(res.Unscheduled, m.events[i])
			continue
		}
		res.Schedule = append(res.Schedule, Placement{Event: m.events[i], Slot: m.slots[j]})
	}
	return res
}

// state tracks which cells are still open while a solver places events.
type state struct {
	m            *model
	venueBlocked []int
	forbidden    [][]int
	assigned     []int
}

func newState(m *model) *state {
	st := &state{
		m:            m,
		venueBlocked: make([]int, len(m.slots)),
		forbidden:    make([][]int, len(m.events)),
		assigned:     make([]int, len(m.events)),
	}
	for i := range m.events {
		st.forbidden[i] = make([]int, len(m.slots))
		st.assigned[i] = -1
	}
	return st
}

func (st *state) canPlace(i, j int) bool {
	return st.venueBlocked[j] == 0 && st.forbidden[i][j] == 0
}

func (st *state) place(i, j int) {
	st.shift(i, j, 1)
	st.assigned[i] = j
}

func (st *state) unplace(i, j int) {
	st.shift(i, j, -1)
	st.assigned[i] = -1
}

func (st *state) shift(i, j, delta int) {
	for _, s := range st.m.venueClash[j] {
		st.venueBlocked[s] += delta
	}
	for _, k := range st.m.conflicts[i] {
		for _, s := range st.m.timeClash[j] {
			st.forbidden[k][s] += delta
		}
	}
}

// bestOpen returns the weight of the best still-open candidate for event i.
func (st *state) bestOpen(i int) (int, int64, bool) {
	for _, j := range st.m.candidates[i] {
		if st.canPlace(i, j) {
			return j, st.m.weights[i][j], true
		}
	}
	return -1, 0, false
}
