package solver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lineupforge/lineup-engine/internal/types"
	"github.com/lineupforge/lineup-engine/pkg/logger"
)

const (
	projEpsilon       = 1e-9
	deadlineCheckMask = 1023 // check clock every 1024 nodes
)

// BranchAndBound is an exact depth-first solver with upper-bound pruning and
// a bounded wall-clock budget. On budget expiry it falls back to the greedy
// marginal-value heuristic and marks the solution approximate instead of
// failing. Output is deterministic for identical input: equal-objective ties
// break toward smaller unused salary, then the lexicographically smallest
// player-id sequence.
type BranchAndBound struct {
	TimeBudget time.Duration
	log        *logrus.Entry
}

// NewBranchAndBound creates a solver with the given wall-clock budget.
// A zero budget disables the deadline.
func NewBranchAndBound(budget time.Duration) *BranchAndBound {
	return &BranchAndBound{
		TimeBudget: budget,
		log:        logger.WithComponent("solver"),
	}
}

type searchState struct {
	inst       *Instance
	candidates [][]candidate
	forced     map[string]bool

	// suffix bounds over slot indexes
	minSalSuffix  []int
	maxSalSuffix  []int
	maxProjSuffix []float64

	deadline time.Time
	ctx      context.Context
	expired  bool

	nodes  int64
	pruned int64

	assignment []string
	used       map[string]bool
	shared     []int // per overlap constraint
	forcedIn   int

	best     []string
	bestKey  string
	bestSal  int
	bestProj float64
	found    bool
}

// Solve runs the branch-and-bound search over the instance.
func (s *BranchAndBound) Solve(ctx context.Context, inst *Instance) (*Solution, error) {
	start := time.Now()

	candidates, err := inst.buildCandidates()
	if err != nil {
		return nil, err
	}

	st := &searchState{
		inst:       inst,
		candidates: candidates,
		forced:     make(map[string]bool, len(inst.ForceInclude)),
		ctx:        ctx,
		assignment: make([]string, len(inst.Slots)),
		used:       make(map[string]bool, len(inst.Slots)),
		shared:     make([]int, len(inst.Overlaps)),
	}
	for _, id := range inst.ForceInclude {
		st.forced[id] = true
	}
	if len(st.forced) > len(inst.Slots) {
		return nil, &types.InfeasibleError{
			Detail: fmt.Sprintf("%d force-included players exceed %d roster slots", len(st.forced), len(inst.Slots)),
		}
	}
	if s.TimeBudget > 0 {
		st.deadline = start.Add(s.TimeBudget)
	}
	st.computeSuffixBounds()

	st.descend(0, 0, 0)

	elapsed := time.Since(start)
	stats := Stats{NodesExplored: st.nodes, NodesPruned: st.pruned, Elapsed: elapsed}

	if st.expired {
		if err := ctx.Err(); err != nil && !st.found {
			return nil, err
		}
		return s.fallback(st, stats)
	}

	if !st.found {
		return nil, &types.InfeasibleError{
			Detail: fmt.Sprintf("no assignment of %d players fills %d slots within cap %d",
				len(inst.Players), len(inst.Slots), inst.SalaryCap),
		}
	}

	s.log.WithFields(logrus.Fields{
		"nodes_explored":   st.nodes,
		"nodes_pruned":     st.pruned,
		"total_projection": st.bestProj,
		"total_salary":     st.bestSal,
		"elapsed_ms":       elapsed.Milliseconds(),
	}).Debug("Solve completed")

	return &Solution{
		PlayerIDs:       st.best,
		TotalSalary:     st.bestSal,
		TotalProjection: st.bestProj,
		Stats:           stats,
	}, nil
}

// fallback resolves a budget expiry: keep the incumbent if the greedy
// heuristic cannot beat it, otherwise take the greedy lineup. Either way the
// result is marked approximate.
func (s *BranchAndBound) fallback(st *searchState, stats Stats) (*Solution, error) {
	s.log.WithFields(logrus.Fields{
		"nodes_explored": st.nodes,
		"incumbent":      st.found,
	}).Warn("Solver budget exceeded, falling back to greedy heuristic")

	greedySol, greedyErr := solveGreedy(st.inst, st.candidates)
	switch {
	case greedyErr == nil && (!st.found || greedySol.TotalProjection > st.bestProj+projEpsilon):
		greedySol.Approximate = true
		stats.Fallback = true
		greedySol.Stats = stats
		return greedySol, nil
	case st.found:
		stats.Fallback = greedyErr != nil
		return &Solution{
			PlayerIDs:       st.best,
			TotalSalary:     st.bestSal,
			TotalProjection: st.bestProj,
			Approximate:     true,
			Stats:           stats,
		}, nil
	default:
		if greedyErr != nil {
			return nil, greedyErr
		}
		greedySol.Approximate = true
		stats.Fallback = true
		greedySol.Stats = stats
		return greedySol, nil
	}
}

func (st *searchState) computeSuffixBounds() {
	n := len(st.candidates)
	st.minSalSuffix = make([]int, n+1)
	st.maxSalSuffix = make([]int, n+1)
	st.maxProjSuffix = make([]float64, n+1)
	for i := n - 1; i >= 0; i-- {
		minSal := st.candidates[i][0].salary
		maxSal := st.candidates[i][0].salary
		maxProj := st.candidates[i][0].proj
		for _, c := range st.candidates[i][1:] {
			if c.salary < minSal {
				minSal = c.salary
			}
			if c.salary > maxSal {
				maxSal = c.salary
			}
			if c.proj > maxProj {
				maxProj = c.proj
			}
		}
		st.minSalSuffix[i] = st.minSalSuffix[i+1] + minSal
		st.maxSalSuffix[i] = st.maxSalSuffix[i+1] + maxSal
		st.maxProjSuffix[i] = st.maxProjSuffix[i+1] + maxProj
	}
}

func (st *searchState) descend(slotIdx, salary int, proj float64) {
	if st.expired {
		return
	}
	st.nodes++
	if st.nodes&deadlineCheckMask == 0 {
		if st.ctx.Err() != nil || (!st.deadline.IsZero() && time.Now().After(st.deadline)) {
			st.expired = true
			return
		}
	}

	if slotIdx == len(st.candidates) {
		if salary < st.inst.MinSalary {
			return
		}
		st.record(salary, proj)
		return
	}

	// Optimistic bound: even the best remaining projections cannot beat the
	// incumbent. Equal-objective branches stay open for the salary tie-break.
	if st.found && proj+st.maxProjSuffix[slotIdx] < st.bestProj-projEpsilon {
		st.pruned++
		return
	}

	remaining := len(st.candidates) - slotIdx
	missingForced := 0
	for id := range st.forced {
		if !st.used[id] {
			missingForced++
		}
	}
	if missingForced > remaining {
		st.pruned++
		return
	}
	mustUseForced := missingForced == remaining

	for _, c := range st.candidates[slotIdx] {
		id := c.player.ID
		if st.used[id] {
			continue
		}
		if mustUseForced && !st.forced[id] {
			continue
		}
		if salary+c.salary+st.minSalSuffix[slotIdx+1] > st.inst.SalaryCap {
			continue
		}
		if st.inst.MinSalary > 0 && salary+c.salary+st.maxSalSuffix[slotIdx+1] < st.inst.MinSalary {
			continue
		}
		if !st.overlapOK(id) {
			continue
		}

		st.used[id] = true
		st.assignment[slotIdx] = id
		st.bumpOverlap(id, 1)

		st.descend(slotIdx+1, salary+c.salary, proj+c.proj)

		st.bumpOverlap(id, -1)
		delete(st.used, id)
		if st.expired {
			return
		}
	}
}

func (st *searchState) overlapOK(playerID string) bool {
	for k, oc := range st.inst.Overlaps {
		if oc.Players[playerID] && st.shared[k]+1 > oc.MaxShared {
			return false
		}
	}
	return true
}

func (st *searchState) bumpOverlap(playerID string, delta int) {
	for k, oc := range st.inst.Overlaps {
		if oc.Players[playerID] {
			st.shared[k] += delta
		}
	}
}

func (st *searchState) record(salary int, proj float64) {
	key := strings.Join(st.assignment, "|")
	if st.found {
		switch {
		case proj < st.bestProj-projEpsilon:
			return
		case proj <= st.bestProj+projEpsilon:
			// Equal objective: prefer smaller unused salary, then the
			// lexicographically smallest assignment.
			if salary < st.bestSal {
				return
			}
			if salary == st.bestSal && key >= st.bestKey {
				return
			}
		}
	}
	st.best = append(st.best[:0:0], st.assignment...)
	st.bestKey = key
	st.bestSal = salary
	st.bestProj = proj
	st.found = true
}
