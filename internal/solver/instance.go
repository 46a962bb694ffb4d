// Package solver formulates single-lineup selection as a 0/1 integer program
// over (player, slot) decision variables and solves it exactly with a
// depth-first branch-and-bound. The Solver interface keeps the formulation
// separate from the backend so another ILP solver can be substituted.
package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lineupforge/lineup-engine/internal/types"
)

// OverlapConstraint caps how many players a solution may share with a fixed
// player set. The portfolio controller adds one per accepted lineup to
// enforce batch uniqueness.
type OverlapConstraint struct {
	Players   map[string]bool
	MaxShared int
}

// Instance is one constrained lineup-selection problem.
type Instance struct {
	Slots     []types.RosterSlot
	Players   []types.Player
	SalaryCap int
	MinSalary int // 0 disables the floor

	// Locked pins a player into a slot (slot index -> player id). Locked
	// players are excluded from candidacy for every other slot.
	Locked map[int]string

	// Excluded bars players from all slots.
	Excluded map[string]bool

	// ForceInclude lists players that must appear somewhere in the lineup.
	ForceInclude []string

	Overlaps []OverlapConstraint
}

// Stats reports search effort for one solve.
type Stats struct {
	NodesExplored int64         `json:"nodes_explored"`
	NodesPruned   int64         `json:"nodes_pruned"`
	Elapsed       time.Duration `json:"elapsed"`
	Fallback      bool          `json:"fallback"`
}

// Solution is a complete assignment, one player id per slot in slot order.
type Solution struct {
	PlayerIDs       []string
	TotalSalary     int
	TotalProjection float64
	Approximate     bool
	Stats           Stats
}

// Solver solves one lineup-selection instance.
type Solver interface {
	Solve(ctx context.Context, inst *Instance) (*Solution, error)
}

// candidate is a player bound to a slot with effective salary and projection
// (slot multipliers applied).
type candidate struct {
	player types.Player
	salary int
	proj   float64
}

// buildCandidates resolves the per-slot candidate lists, sorted by effective
// projection descending, salary ascending, then id for determinism.
func (inst *Instance) buildCandidates() ([][]candidate, error) {
	byID := make(map[string]types.Player, len(inst.Players))
	for _, p := range inst.Players {
		byID[p.ID] = p
	}

	lockedPlayers := make(map[string]bool, len(inst.Locked))
	for slotIdx, id := range inst.Locked {
		if slotIdx < 0 || slotIdx >= len(inst.Slots) {
			return nil, fmt.Errorf("locked slot index %d out of range", slotIdx)
		}
		lockedPlayers[id] = true
	}

	candidates := make([][]candidate, len(inst.Slots))
	for i, slot := range inst.Slots {
		if lockedID, ok := inst.Locked[i]; ok {
			// Pinned exactly as given; the player was valid when placed.
			p, found := byID[lockedID]
			if !found {
				return nil, fmt.Errorf("locked player %s not in candidate pool", lockedID)
			}
			candidates[i] = []candidate{{
				player: p,
				salary: slot.EffectiveSalary(p.Salary),
				proj:   slot.EffectiveProjection(p.Projection),
			}}
			continue
		}

		list := make([]candidate, 0, len(inst.Players))
		for _, p := range inst.Players {
			if inst.Excluded[p.ID] || lockedPlayers[p.ID] {
				continue
			}
			if !slot.Accepts(p) {
				continue
			}
			list = append(list, candidate{
				player: p,
				salary: slot.EffectiveSalary(p.Salary),
				proj:   slot.EffectiveProjection(p.Projection),
			})
		}
		if len(list) == 0 {
			return nil, &types.InfeasibleError{
				Detail: fmt.Sprintf("no eligible players for slot %s", slot.Name),
			}
		}
		sort.Slice(list, func(a, b int) bool {
			if list[a].proj != list[b].proj {
				return list[a].proj > list[b].proj
			}
			if list[a].salary != list[b].salary {
				return list[a].salary < list[b].salary
			}
			return list[a].player.ID < list[b].player.ID
		})
		candidates[i] = list
	}
	return candidates, nil
}
