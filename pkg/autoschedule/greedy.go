package autoschedule

import "context"

// Greedy places events one at a time into their best open slot, most
// constrained event first. It never backtracks, so results are feasible but
// not proven optimal.
type Greedy struct{}

// NewGreedy builds the heuristic solver.
func NewGreedy() *Greedy {
	return &Greedy{}
}

// Solve implements Solver.
func (Greedy) Solve(ctx context.Context, p Problem) (*Result, error) {
	m, err := newModel(p)
	if err != nil {
		return nil, err
	}
	st := newState(m)
	var score int64
	for n, i := range m.order {
		if n%256 == 0 && ctx.Err() != nil {
			break
		}
		j, w, ok := st.bestOpen(i)
		if !ok {
			continue
		}
		st.place(i, j)
		score += w
	}
	return m.result(st.assigned, score, false, len(m.order)), nil
}
