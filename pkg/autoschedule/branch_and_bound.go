package autoschedule

import (
	"context"
	"sort"
)

// DefaultNodeLimit bounds the number of search nodes BranchAndBound visits.
const DefaultNodeLimit = 5_000_000

// BranchAndBound is an exact depth-first solver. It keeps the best
// assignment found so far and stops early, returning that incumbent, when
// the node budget is spent or the context is done.
type BranchAndBound struct {
	NodeLimit int
}

// NewBranchAndBound builds the exact solver; nodeLimit <= 0 uses DefaultNodeLimit.
func NewBranchAndBound(nodeLimit int) *BranchAndBound {
	if nodeLimit <= 0 {
		nodeLimit = DefaultNodeLimit
	}
	return &BranchAndBound{NodeLimit: nodeLimit}
}

// Solve implements Solver.
func (b *BranchAndBound) Solve(ctx context.Context, p Problem) (*Result, error) {
	m, err := newModel(p)
	if err != nil {
		return nil, err
	}
	limit := b.NodeLimit
	if limit <= 0 {
		limit = DefaultNodeLimit
	}

	s := &bnbSearch{
		ctx:   ctx,
		m:     m,
		st:    newState(m),
		limit: limit,
		best:  make([]int, len(m.events)),
		seen:  make([]int, len(m.slots)),
		tops:  make([]int64, 0, len(m.events)),
	}
	for i := range s.best {
		s.best[i] = -1
	}
	s.dfs(0, 0)

	return m.result(s.best, s.bestScore, !s.aborted, s.nodes), nil
}

type bnbSearch struct {
	ctx   context.Context
	m     *model
	st    *state
	limit int

	nodes     int
	aborted   bool
	best      []int
	bestScore int64

	// scratch for bound
	seen  []int
	epoch int
	tops  []int64
}

func (s *bnbSearch) dfs(depth int, score int64) {
	if s.aborted {
		return
	}
	s.nodes++
	if s.nodes > s.limit {
		s.aborted = true
		return
	}
	if s.nodes%1024 == 0 && s.ctx.Err() != nil {
		s.aborted = true
		return
	}

	if score > s.bestScore {
		s.bestScore = score
		copy(s.best, s.st.assigned)
	}
	if depth == len(s.m.order) {
		return
	}
	if score+s.bound(depth) <= s.bestScore {
		return
	}

	i := s.m.order[depth]
	for _, j := range s.m.candidates[i] {
		if !s.st.canPlace(i, j) {
			continue
		}
		s.st.place(i, j)
		s.dfs(depth+1, score+s.m.weights[i][j])
		s.st.unplace(i, j)
		if s.aborted {
			return
		}
	}
	// leave event i unscheduled
	s.dfs(depth+1, score)
}

// bound is an optimistic estimate of what the events from depth on can add.
// Each slot holds at most one event, so only the k best per-event weights
// count, k being the number of distinct open slots those events can still
// reach.
func (s *bnbSearch) bound(depth int) int64 {
	s.epoch++
	s.tops = s.tops[:0]
	open := 0
	for _, i := range s.m.order[depth:] {
		best := int64(-1)
		for _, j := range s.m.candidates[i] {
			if !s.st.canPlace(i, j) {
				continue
			}
			if best < 0 {
				best = s.m.weights[i][j]
			}
			if s.seen[j] != s.epoch {
				s.seen[j] = s.epoch
				open++
			}
		}
		if best > 0 {
			s.tops = append(s.tops, best)
		}
	}
	if open < len(s.tops) {
		sort.Slice(s.tops, func(a, b int) bool { return s.tops[a] > s.tops[b] })
		s.tops = s.tops[:open]
	}

	var total int64
	for _, w := range s.tops {
		total += w
	}
	return total
}
