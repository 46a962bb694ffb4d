// Package lateswap re-optimizes the still-open slots of an already emitted
// lineup against a refreshed slate snapshot while preserving every locked
// selection.
package lateswap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lineupforge/lineup-engine/internal/solver"
	"github.com/lineupforge/lineup-engine/internal/types"
	"github.com/lineupforge/lineup-engine/pkg/logger"
)

// SnapshotFunc returns the most recent slate snapshot. When configured, the
// engine re-validates its result against the latest snapshot immediately
// before returning and raises StaleDataError if the pool moved mid-solve.
type SnapshotFunc func() *types.Slate

// Engine performs late swaps. Calls are independent per lineup and safe to
// run concurrently across entries.
type Engine struct {
	solver   solver.Solver
	snapshot SnapshotFunc
	log      *logrus.Entry
}

// NewEngine creates a late-swap engine. snapshot may be nil, which disables
// the freshness re-check.
func NewEngine(s solver.Solver, snapshot SnapshotFunc) *Engine {
	return &Engine{
		solver:   s,
		snapshot: snapshot,
		log:      logger.WithComponent("lateswap"),
	}
}

// Swap re-solves the unlocked slots of lineup against the refreshed slate.
// Locked slots are pinned exactly as given and their players are removed
// from candidacy for open slots; open-slot candidates are filtered to
// ACTIVE status. A FINAL lock state is a no-op returning the input lineup.
// Re-running with unchanged inputs yields a byte-identical lineup.
func (e *Engine) Swap(ctx context.Context, lineup *types.Lineup, slate *types.Slate, locks *types.LockState) (*types.Lineup, error) {
	rosterSize := slate.RosterSize()
	if len(lineup.Slots) != rosterSize {
		return nil, fmt.Errorf("lineup has %d slots, slate template has %d", len(lineup.Slots), rosterSize)
	}

	phase := locks.Phase(rosterSize)
	log := logger.WithSwapContext(lineup.ID, slate.Version).WithField("phase", phase)
	if phase == types.PhaseFinal {
		log.Debug("All slots locked, late swap is a no-op")
		return lineup, nil
	}

	locked := make(map[int]string, len(lineupLocks(locks)))
	lockedSalary := 0
	for slotIdx, playerID := range lineupLocks(locks) {
		if slotIdx < 0 || slotIdx >= rosterSize {
			return nil, fmt.Errorf("lock references slot index %d outside roster of %d", slotIdx, rosterSize)
		}
		player, ok := slate.Player(playerID)
		if !ok {
			return nil, fmt.Errorf("locked player %s not in refreshed slate", playerID)
		}
		locked[slotIdx] = playerID
		lockedSalary += slate.Template.Slots[slotIdx].EffectiveSalary(player.Salary)
	}

	// Candidates for open slots: ACTIVE players only. Locked players are
	// excluded from open-slot candidacy inside the solver.
	pool := slate.ActivePlayers()
	for _, id := range locked {
		if p, ok := slate.Player(id); ok && !p.IsActive() {
			pool = append(pool, p)
		}
	}

	log.WithFields(logrus.Fields{
		"locked_slots":     len(locked),
		"locked_salary":    lockedSalary,
		"remaining_budget": slate.SalaryCap - lockedSalary,
		"active_pool":      len(pool),
	}).Info("Starting late swap")

	inst := &solver.Instance{
		Slots:     slate.Template.Slots,
		Players:   pool,
		SalaryCap: slate.SalaryCap,
		Locked:    locked,
	}
	sol, err := e.solver.Solve(ctx, inst)
	if err != nil {
		return nil, err
	}

	// Unchanged assignment: keep the lineup's ID and version. When the
	// refreshed slate moved the projections underneath it, the derived
	// totals are rebuilt; under identical inputs the input comes back
	// byte-identical.
	if sameAssignment(lineup, sol.PlayerIDs) {
		rebuilt, err := types.NewLineup(slate, sol.PlayerIDs, lineup.Version)
		if err != nil {
			return nil, fmt.Errorf("rebuilding unchanged lineup: %w", err)
		}
		if rebuilt.TotalSalary == lineup.TotalSalary &&
			rebuilt.TotalProjection == lineup.TotalProjection &&
			rebuilt.TotalOwnership == lineup.TotalOwnership {
			log.Debug("Re-solve kept the existing assignment")
			return lineup, nil
		}
		rebuilt.Approximate = sol.Approximate
		if err := e.checkFreshness(rebuilt, locks); err != nil {
			return nil, err
		}
		log.Debug("Re-solve kept the assignment, refreshed derived totals")
		return rebuilt, nil
	}

	swapped, err := types.NewLineup(slate, sol.PlayerIDs, lineup.Version+1)
	if err != nil {
		return nil, fmt.Errorf("assembling swapped lineup: %w", err)
	}
	swapped.Approximate = sol.Approximate
	if err := swapped.Validate(slate, slate.SalaryCap, 0); err != nil {
		return nil, fmt.Errorf("swapped lineup failed validation: %w", err)
	}

	if err := e.checkFreshness(swapped, locks); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"new_lineup_id":    swapped.ID,
		"total_salary":     swapped.TotalSalary,
		"total_projection": swapped.TotalProjection,
	}).Info("Late swap completed")
	return swapped, nil
}

// checkFreshness re-validates the swapped lineup against the latest
// snapshot: an unlocked-slot player ruled out between solve start and finish
// makes the result stale rather than silently wrong.
func (e *Engine) checkFreshness(swapped *types.Lineup, locks *types.LockState) error {
	if e.snapshot == nil {
		return nil
	}
	latest := e.snapshot()
	if latest == nil {
		return nil
	}
	var stale []string
	for i, slot := range swapped.Slots {
		if locks.IsLocked(i) {
			continue
		}
		player, ok := latest.Player(slot.PlayerID)
		if !ok || !player.IsActive() {
			stale = append(stale, slot.PlayerID)
		}
	}
	if len(stale) > 0 {
		return &types.StaleDataError{PlayerIDs: stale}
	}
	return nil
}

func sameAssignment(lineup *types.Lineup, playerIDs []string) bool {
	if len(lineup.Slots) != len(playerIDs) {
		return false
	}
	for i, slot := range lineup.Slots {
		if slot.PlayerID != playerIDs[i] {
			return false
		}
	}
	return true
}

func lineupLocks(locks *types.LockState) map[int]string {
	if locks == nil || locks.Locked == nil {
		return map[int]string{}
	}
	return locks.Locked
}
