package solver

import (
	"fmt"
	"sort"

	"github.com/lineupforge/lineup-engine/internal/types"
)

// solveGreedy is the marginal-value fallback used when the exact search runs
// out of budget. It fills scarce slots first and takes the highest-projection
// candidate that leaves enough budget to finish the roster. Deterministic,
// but not guaranteed optimal.
func solveGreedy(inst *Instance, candidates [][]candidate) (*Solution, error) {
	n := len(inst.Slots)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if len(candidates[order[a]]) != len(candidates[order[b]]) {
			return len(candidates[order[a]]) < len(candidates[order[b]])
		}
		return order[a] < order[b]
	})

	minSlotSal := make([]int, n)
	for i, list := range candidates {
		minSlotSal[i] = list[0].salary
		for _, c := range list[1:] {
			if c.salary < minSlotSal[i] {
				minSlotSal[i] = c.salary
			}
		}
	}

	assignment := make([]string, n)
	filled := make([]bool, n)
	used := make(map[string]bool, n)
	shared := make([]int, len(inst.Overlaps))
	salary := 0
	proj := 0.0

	place := func(slotIdx int, c candidate) {
		assignment[slotIdx] = c.player.ID
		filled[slotIdx] = true
		used[c.player.ID] = true
		salary += c.salary
		proj += c.proj
		for k, oc := range inst.Overlaps {
			if oc.Players[c.player.ID] {
				shared[k]++
			}
		}
	}

	overlapOK := func(id string) bool {
		for k, oc := range inst.Overlaps {
			if oc.Players[id] && shared[k]+1 > oc.MaxShared {
				return false
			}
		}
		return true
	}

	// Budget needed to finish every other unfilled slot at its cheapest.
	remainingFloor := func(exceptSlot int) int {
		total := 0
		for i := 0; i < n; i++ {
			if !filled[i] && i != exceptSlot {
				total += minSlotSal[i]
			}
		}
		return total
	}

	// Seed force-included players into their scarcest eligible slots.
	forced := append([]string(nil), inst.ForceInclude...)
	sort.Strings(forced)
	for _, id := range forced {
		if used[id] {
			continue
		}
		placedAt := -1
		var chosen candidate
		for _, slotIdx := range order {
			if filled[slotIdx] {
				continue
			}
			for _, c := range candidates[slotIdx] {
				if c.player.ID != id {
					continue
				}
				if salary+c.salary+remainingFloor(slotIdx) > inst.SalaryCap {
					break
				}
				if !overlapOK(id) {
					break
				}
				placedAt = slotIdx
				chosen = c
				break
			}
			if placedAt >= 0 {
				break
			}
		}
		if placedAt < 0 {
			return nil, &types.InfeasibleError{
				Detail: fmt.Sprintf("greedy fallback could not place required player %s", id),
			}
		}
		place(placedAt, chosen)
	}

	for _, slotIdx := range order {
		if filled[slotIdx] {
			continue
		}
		placed := false
		for _, c := range candidates[slotIdx] {
			if used[c.player.ID] {
				continue
			}
			if salary+c.salary+remainingFloor(slotIdx) > inst.SalaryCap {
				continue
			}
			if !overlapOK(c.player.ID) {
				continue
			}
			place(slotIdx, c)
			placed = true
			break
		}
		if !placed {
			return nil, &types.InfeasibleError{
				Detail: fmt.Sprintf("greedy fallback could not fill slot %s within cap %d",
					inst.Slots[slotIdx].Name, inst.SalaryCap),
			}
		}
	}

	if inst.MinSalary > 0 && salary < inst.MinSalary {
		return nil, &types.InfeasibleError{
			Detail: fmt.Sprintf("greedy fallback salary %d below configured floor %d", salary, inst.MinSalary),
		}
	}

	return &Solution{
		PlayerIDs:       assignment,
		TotalSalary:     salary,
		TotalProjection: proj,
	}, nil
}
