package lateswap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineupforge/lineup-engine/internal/solver"
	"github.com/lineupforge/lineup-engine/internal/types"
)

func swapTemplate() types.RosterTemplate {
	return types.RosterTemplate{
		Name: "test",
		Slots: []types.RosterSlot{
			{Name: "QB", Eligible: []string{"QB"}, SalaryMultiplier: 1.0, PointsMultiplier: 1.0},
			{Name: "RB", Eligible: []string{"RB"}, SalaryMultiplier: 1.0, PointsMultiplier: 1.0},
			{Name: "FLEX", Eligible: []string{"RB", "WR"}, SalaryMultiplier: 1.0, PointsMultiplier: 1.0},
		},
	}
}

func swapPlayer(id, pos string, salary int, proj float64, status types.PlayerStatus) types.Player {
	return types.Player{
		ID:         id,
		Name:       id,
		Positions:  []string{pos},
		Salary:     salary,
		Projection: proj,
		Status:     status,
	}
}

// originalSlate is the snapshot the lineup was originally built against.
func originalSlate(t *testing.T) *types.Slate {
	t.Helper()
	players := []types.Player{
		swapPlayer("qb1", "QB", 6000, 20, types.StatusActive),
		swapPlayer("qb2", "QB", 5500, 18, types.StatusActive),
		swapPlayer("rb1", "RB", 7000, 16, types.StatusActive),
		swapPlayer("rb2", "RB", 6000, 14, types.StatusActive),
		swapPlayer("wr1", "WR", 5000, 12, types.StatusActive),
		swapPlayer("wr2", "WR", 4500, 10, types.StatusActive),
	}
	slate, err := types.NewSlate("dk", "nfl", "classic", 50000, swapTemplate(), players, 1)
	require.NoError(t, err)
	return slate
}

// refreshedSlate rules rb2 out late and boosts wr1.
func refreshedSlate(t *testing.T) *types.Slate {
	t.Helper()
	players := []types.Player{
		swapPlayer("qb1", "QB", 6000, 20, types.StatusActive),
		swapPlayer("qb2", "QB", 5500, 18, types.StatusActive),
		swapPlayer("rb1", "RB", 7000, 16, types.StatusActive),
		swapPlayer("rb2", "RB", 6000, 40, types.StatusOut), // projection stale, ruled out
		swapPlayer("wr1", "WR", 5000, 15, types.StatusActive),
		swapPlayer("wr2", "WR", 4500, 10, types.StatusActive),
	}
	slate, err := types.NewSlate("dk", "nfl", "classic", 50000, swapTemplate(), players, 2)
	require.NoError(t, err)
	return slate
}

func originalLineup(t *testing.T, slate *types.Slate) *types.Lineup {
	t.Helper()
	lineup, err := types.NewLineup(slate, []string{"qb1", "rb1", "rb2"}, 1)
	require.NoError(t, err)
	return lineup
}

func newTestEngine(snapshot SnapshotFunc) *Engine {
	return NewEngine(solver.NewBranchAndBound(2*time.Second), snapshot)
}

func TestSwap_ReplacesRuledOutPlayer(t *testing.T) {
	lineup := originalLineup(t, originalSlate(t))
	refreshed := refreshedSlate(t)

	engine := newTestEngine(nil)
	swapped, err := engine.Swap(context.Background(), lineup, refreshed, types.NewLockState())
	require.NoError(t, err)

	assert.Equal(t, []string{"qb1", "rb1", "wr1"}, swapped.PlayerIDs())
	assert.False(t, swapped.HasPlayer("rb2"), "non-ACTIVE player must not fill an unlocked slot")
	assert.Equal(t, lineup.Version+1, swapped.Version)
	assert.NotEqual(t, lineup.ID, swapped.ID)
	require.NoError(t, swapped.Validate(refreshed, refreshed.SalaryCap, 0))
}

func TestSwap_LockedSlotNeverAltered(t *testing.T) {
	lineup := originalLineup(t, originalSlate(t))

	// rb1 is locked into its slot and then ruled out: the lock wins.
	players := []types.Player{
		swapPlayer("qb1", "QB", 6000, 20, types.StatusActive),
		swapPlayer("qb2", "QB", 5500, 18, types.StatusActive),
		swapPlayer("rb1", "RB", 7000, 16, types.StatusOut),
		swapPlayer("rb2", "RB", 6000, 14, types.StatusOut),
		swapPlayer("wr1", "WR", 5000, 15, types.StatusActive),
		swapPlayer("wr2", "WR", 4500, 10, types.StatusActive),
	}
	refreshed, err := types.NewSlate("dk", "nfl", "classic", 50000, swapTemplate(), players, 2)
	require.NoError(t, err)

	locks := types.NewLockState()
	locks.Lock(1, "rb1")

	engine := newTestEngine(nil)
	swapped, err := engine.Swap(context.Background(), lineup, refreshed, locks)
	require.NoError(t, err)

	assert.Equal(t, "rb1", swapped.Slots[1].PlayerID, "locked slot keeps its player even when ruled out")
	assert.Equal(t, []string{"qb1", "rb1", "wr1"}, swapped.PlayerIDs())
	assert.False(t, swapped.HasPlayer("rb2"), "unlocked slots take ACTIVE players only")
}

func TestSwap_FinalPhaseIsNoOp(t *testing.T) {
	lineup := originalLineup(t, originalSlate(t))
	refreshed := refreshedSlate(t)

	locks := types.NewLockState()
	locks.Lock(0, "qb1")
	locks.Lock(1, "rb1")
	locks.Lock(2, "rb2")

	engine := newTestEngine(nil)
	swapped, err := engine.Swap(context.Background(), lineup, refreshed, locks)
	require.NoError(t, err)
	assert.Same(t, lineup, swapped, "fully locked lineup must come back untouched")
}

func TestSwap_Idempotent(t *testing.T) {
	lineup := originalLineup(t, originalSlate(t))
	refreshed := refreshedSlate(t)
	engine := newTestEngine(nil)

	first, err := engine.Swap(context.Background(), lineup, refreshed, types.NewLockState())
	require.NoError(t, err)
	require.NotEqual(t, lineup.ID, first.ID)

	second, err := engine.Swap(context.Background(), first, refreshed, types.NewLockState())
	require.NoError(t, err)
	assert.Same(t, first, second, "re-running with unchanged inputs must not produce a new lineup")
	assert.Equal(t, first.Version, second.Version)
}

func TestSwap_RefreshesTotalsWhenAssignmentHolds(t *testing.T) {
	lineup := originalLineup(t, originalSlate(t))
	engine := newTestEngine(nil)

	first, err := engine.Swap(context.Background(), lineup, refreshedSlate(t), types.NewLockState())
	require.NoError(t, err)
	require.Equal(t, []string{"qb1", "rb1", "wr1"}, first.PlayerIDs())

	// A further refresh moves wr1's projection but not the optimum.
	players := []types.Player{
		swapPlayer("qb1", "QB", 6000, 20, types.StatusActive),
		swapPlayer("qb2", "QB", 5500, 18, types.StatusActive),
		swapPlayer("rb1", "RB", 7000, 16, types.StatusActive),
		swapPlayer("rb2", "RB", 6000, 14, types.StatusOut),
		swapPlayer("wr1", "WR", 5000, 17, types.StatusActive),
		swapPlayer("wr2", "WR", 4500, 10, types.StatusActive),
	}
	again, err := types.NewSlate("dk", "nfl", "classic", 50000, swapTemplate(), players, 3)
	require.NoError(t, err)

	second, err := engine.Swap(context.Background(), first, again, types.NewLockState())
	require.NoError(t, err)

	assert.Equal(t, first.PlayerIDs(), second.PlayerIDs())
	assert.Equal(t, first.ID, second.ID, "unchanged assignment keeps its ID")
	assert.Equal(t, first.Version, second.Version, "unchanged assignment keeps its version")
	assert.InDelta(t, 20+16+17, second.TotalProjection, 1e-9,
		"derived totals must reflect the snapshot they are returned against")
}

func TestSwap_StaleData(t *testing.T) {
	lineup := originalLineup(t, originalSlate(t))
	refreshed := refreshedSlate(t)

	// Between solve start and finish the pool moved again: wr1, which the
	// swap selects, is ruled out in the latest snapshot.
	latest := func() *types.Slate {
		players := []types.Player{
			swapPlayer("qb1", "QB", 6000, 20, types.StatusActive),
			swapPlayer("qb2", "QB", 5500, 18, types.StatusActive),
			swapPlayer("rb1", "RB", 7000, 16, types.StatusActive),
			swapPlayer("rb2", "RB", 6000, 14, types.StatusOut),
			swapPlayer("wr1", "WR", 5000, 15, types.StatusOut),
			swapPlayer("wr2", "WR", 4500, 10, types.StatusActive),
		}
		slate, err := types.NewSlate("dk", "nfl", "classic", 50000, swapTemplate(), players, 3)
		require.NoError(t, err)
		return slate
	}

	engine := newTestEngine(latest)
	_, err := engine.Swap(context.Background(), lineup, refreshed, types.NewLockState())

	var stale *types.StaleDataError
	require.True(t, errors.As(err, &stale), "expected StaleDataError, got %v", err)
	assert.Contains(t, stale.PlayerIDs, "wr1")
}

func TestSwap_LockedPlayerMissingFromSlate(t *testing.T) {
	lineup := originalLineup(t, originalSlate(t))
	refreshed := refreshedSlate(t)

	locks := types.NewLockState()
	locks.Lock(0, "ghost")

	engine := newTestEngine(nil)
	_, err := engine.Swap(context.Background(), lineup, refreshed, locks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestSwap_SlotCountMismatch(t *testing.T) {
	lineup := originalLineup(t, originalSlate(t))

	bigger := swapTemplate()
	bigger.Slots = append(bigger.Slots, types.RosterSlot{
		Name: "WR", Eligible: []string{"WR"}, SalaryMultiplier: 1.0, PointsMultiplier: 1.0,
	})
	players := []types.Player{
		swapPlayer("qb1", "QB", 6000, 20, types.StatusActive),
		swapPlayer("rb1", "RB", 7000, 16, types.StatusActive),
		swapPlayer("wr1", "WR", 5000, 15, types.StatusActive),
		swapPlayer("wr2", "WR", 4500, 10, types.StatusActive),
	}
	mismatched, err := types.NewSlate("dk", "nfl", "classic", 50000, bigger, players, 2)
	require.NoError(t, err)

	engine := newTestEngine(nil)
	_, err = engine.Swap(context.Background(), lineup, mismatched, types.NewLockState())
	require.Error(t, err)
}

func TestLockPhases(t *testing.T) {
	locks := types.NewLockState()
	assert.Equal(t, types.PhaseOpen, locks.Phase(3))

	locks.Lock(0, "qb1")
	assert.Equal(t, types.PhasePartiallyLocked, locks.Phase(3))
	assert.True(t, locks.IsLocked(0))
	assert.False(t, locks.IsLocked(1))

	locks.Lock(1, "rb1")
	locks.Lock(2, "rb2")
	assert.Equal(t, types.PhaseFinal, locks.Phase(3))
}
