package autoschedule

import (
	"fmt"

	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

// Objective is a linear objective over the assignment matrix. Solvers
// maximise the sum of the weights of the chosen cells; a cell with a
// non-positive weight is never chosen.
type Objective interface {
	Name() string
	Weights(events []Event, slots []Slot) ([][]int64, error)
}

// MaximizeScheduled returns the default objective: schedule as many events as
// possible, any feasible placement being as good as another.
func MaximizeScheduled() Objective {
	return maximizeScheduled{}
}

type maximizeScheduled struct{}

func (maximizeScheduled) Name() string { return "maximize_scheduled" }

func (maximizeScheduled) Weights(events []Event, slots []Slot) ([][]int64, error) {
	w := make([][]int64, len(events))
	for i := range w {
		w[i] = make([]int64, len(slots))
		for j := range w[i] {
			w[i][j] = 1
		}
	}
	return w, nil
}

// MinimizeChanges prefers, among the schedules placing the most events, the
// one whose matrix differs from original in the fewest cells. original must
// already be expressed over the current universe (see Reconcile).
func MinimizeChanges(original Matrix) Objective {
	return minimizeChanges{original: original}
}

type minimizeChanges struct {
	original Matrix
}

func (minimizeChanges) Name() string { return "minimize_changes" }

// Weights gives every cell a base weight large enough that one more
// scheduled event always outweighs any difference in change count, then
// adds one for keeping an original cell and subtracts one for a new cell.
func (o minimizeChanges) Weights(events []Event, slots []Slot) ([][]int64, error) {
	if o.original.Rows() != len(events) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("original schedule has %d rows for %d events", o.original.Rows(), len(events)))
	}
	if len(events) > 0 && o.original.Cols() != len(slots) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("original schedule has %d columns for %d slots", o.original.Cols(), len(slots)))
	}
	base := int64(2*len(events) + 1)
	w := make([][]int64, len(events))
	for i := range w {
		w[i] = make([]int64, len(slots))
		for j := range w[i] {
			if o.original[i][j] {
				w[i][j] = base + 1
			} else {
				w[i][j] = base - 1
			}
		}
	}
	return w, nil
}

// Linear wraps a precomputed weight matrix as an objective.
func Linear(name string, weights [][]int64) Objective {
	return linear{name: name, weights: weights}
}

type linear struct {
	name    string
	weights [][]int64
}

func (l linear) Name() string { return l.name }

func (l linear) Weights(events []Event, slots []Slot) ([][]int64, error) {
	if len(l.weights) != len(events) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("objective %s has %d rows for %d events", l.name, len(l.weights), len(events)))
	}
	for i, row := range l.weights {
		if len(row) != len(slots) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("objective %s row %d has %d columns for %d slots", l.name, i, len(row), len(slots)))
		}
	}
	return l.weights, nil
}
