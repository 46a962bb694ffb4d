package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/lineupforge/lineup-engine/internal/types"
)

func simTemplate() types.RosterTemplate {
	return types.RosterTemplate{
		Name: "test",
		Slots: []types.RosterSlot{
			{Name: "QB", Eligible: []string{"QB"}, SalaryMultiplier: 1.0, PointsMultiplier: 1.0},
			{Name: "RB", Eligible: []string{"RB"}, SalaryMultiplier: 1.0, PointsMultiplier: 1.0},
			{Name: "FLEX", Eligible: []string{"RB", "WR"}, SalaryMultiplier: 1.0, PointsMultiplier: 1.0},
		},
	}
}

func simPlayer(id, pos string, salary int, proj, own float64) types.Player {
	return types.Player{
		ID:         id,
		Name:       id,
		Positions:  []string{pos},
		Salary:     salary,
		Projection: proj,
		Ownership:  own,
		Status:     types.StatusActive,
	}
}

func simSlate(t *testing.T) *types.Slate {
	t.Helper()
	players := []types.Player{
		simPlayer("qb1", "QB", 7000, 30, 0.35),
		simPlayer("qb2", "QB", 6000, 18, 0.20),
		simPlayer("qb3", "QB", 5000, 5, 0.05),
		simPlayer("rb1", "RB", 7500, 25, 0.40),
		simPlayer("rb2", "RB", 6500, 15, 0.25),
		simPlayer("rb3", "RB", 5500, 4, 0.10),
		simPlayer("wr1", "WR", 6800, 20, 0.30),
		simPlayer("wr2", "WR", 5800, 12, 0.15),
		simPlayer("wr3", "WR", 4800, 3, 0), // no projected ownership
	}
	slate, err := types.NewSlate("dk", "nfl", "classic", 50000, simTemplate(), players, 1)
	require.NoError(t, err)
	return slate
}

func simLineups(t *testing.T, slate *types.Slate) []*types.Lineup {
	t.Helper()
	strong, err := types.NewLineup(slate, []string{"qb1", "rb1", "wr1"}, 1)
	require.NoError(t, err)
	weak, err := types.NewLineup(slate, []string{"qb3", "rb3", "wr3"}, 1)
	require.NoError(t, err)
	return []*types.Lineup{strong, weak}
}

func TestScorePortfolio_DeterministicAcrossWorkers(t *testing.T) {
	slate := simSlate(t)
	lineups := simLineups(t, slate)
	field, err := BuildFieldModel(slate, 50, 7)
	require.NoError(t, err)
	payouts := DoubleUpTable(field.Size(), 10)

	run := func(workers int) []ScoreResult {
		results, err := ScorePortfolio(lineups, slate, field, payouts, ScoreConfig{
			SimCount: 500,
			Seed:     42,
			EntryFee: 10,
			Variance: 0.25,
			Workers:  workers,
		})
		require.NoError(t, err)
		return results
	}

	first := run(1)
	assert.Equal(t, first, run(4), "worker count must not change results")
	assert.Equal(t, first, run(1), "identical config must reproduce results exactly")
}

func TestScorePortfolio_DifferentSeedsDiffer(t *testing.T) {
	slate := simSlate(t)
	lineups := simLineups(t, slate)
	field, err := BuildFieldModel(slate, 50, 7)
	require.NoError(t, err)
	payouts := DoubleUpTable(field.Size(), 10)

	score := func(seed uint64) []ScoreResult {
		results, err := ScorePortfolio(lineups, slate, field, payouts, ScoreConfig{
			SimCount: 500, Seed: seed, EntryFee: 10, Variance: 0.25, Workers: 2,
		})
		require.NoError(t, err)
		return results
	}

	assert.NotEqual(t, score(1)[0].Mean, score(2)[0].Mean)
}

func TestScorePortfolio_ResultBounds(t *testing.T) {
	slate := simSlate(t)
	lineups := simLineups(t, slate)
	field, err := BuildFieldModel(slate, 100, 11)
	require.NoError(t, err)
	payouts := DoubleUpTable(field.Size(), 5)

	results, err := ScorePortfolio(lineups, slate, field, payouts, ScoreConfig{
		SimCount: 1000, Seed: 3, EntryFee: 5, Variance: 0.25, Workers: 4,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.WinRate, 0.0)
		assert.LessOrEqual(t, r.WinRate, 1.0)
		assert.GreaterOrEqual(t, r.CashRate, 0.0)
		assert.LessOrEqual(t, r.CashRate, 1.0)
		assert.GreaterOrEqual(t, r.CashRate, r.WinRate, "winning implies cashing in a double-up")
		assert.GreaterOrEqual(t, r.StdDev, 0.0)
		assert.LessOrEqual(t, r.Median, r.P90)
		// Paying the whole prize pool to half the field bounds ROI at +100%.
		assert.GreaterOrEqual(t, r.ROI, -1.0)
		assert.LessOrEqual(t, r.ROI, 1.0)
	}

	strong, weak := results[0], results[1]
	assert.Equal(t, lineups[0].ID, strong.LineupID)
	assert.Greater(t, strong.Mean, weak.Mean, "higher projections must yield a higher expected score")
	assert.GreaterOrEqual(t, strong.CashRate, weak.CashRate)
}

func TestScorePortfolio_InputValidation(t *testing.T) {
	slate := simSlate(t)
	lineups := simLineups(t, slate)
	field, err := BuildFieldModel(slate, 10, 1)
	require.NoError(t, err)
	payouts := DoubleUpTable(10, 10)
	valid := ScoreConfig{SimCount: 10, Seed: 1}

	_, err = ScorePortfolio(nil, slate, field, payouts, valid)
	assert.Error(t, err)

	_, err = ScorePortfolio(lineups, slate, field, payouts, ScoreConfig{SimCount: 0})
	assert.Error(t, err)

	_, err = ScorePortfolio(lineups, slate, &FieldModel{}, payouts, valid)
	assert.Error(t, err)

	_, err = ScorePortfolio(lineups, slate, nil, payouts, valid)
	assert.Error(t, err)
}

func TestScorePortfolio_ShowdownFieldGetsCaptainMultiplier(t *testing.T) {
	template := types.ShowdownTemplate(2, "U")
	players := []types.Player{
		simPlayer("star", "U", 9000, 30, 0.5),
		simPlayer("mid", "U", 6000, 10, 0.3),
		simPlayer("low", "U", 4000, 10, 0.2),
	}
	slate, err := types.NewSlate("dk", "nfl", "showdown", 50000, template, players, 1)
	require.NoError(t, err)

	// The lineup captains the mid player; the lone field entry captains the
	// star. With captain points credited on both sides the field wins nearly
	// every draw.
	lineup, err := types.NewLineup(slate, []string{"mid", "star", "low"}, 1)
	require.NoError(t, err)
	field := &FieldModel{Entries: []FieldEntry{{PlayerIDs: []string{"star", "mid", "low"}}}}
	payouts := PayoutTable{{MinRank: 1, MaxRank: 1, Payout: 20}}

	results, err := ScorePortfolio([]*types.Lineup{lineup}, slate, field, payouts, ScoreConfig{
		SimCount: 2000, Seed: 9, EntryFee: 10, Variance: 0.25, Workers: 2,
	})
	require.NoError(t, err)
	assert.Less(t, results[0].WinRate, 0.2,
		"captaining the weaker player must lose to a star-captained field entry")

	// Flipping the captains flips the result.
	flipped, err := types.NewLineup(slate, []string{"star", "mid", "low"}, 1)
	require.NoError(t, err)
	mirror := &FieldModel{Entries: []FieldEntry{{PlayerIDs: []string{"mid", "star", "low"}}}}
	results, err = ScorePortfolio([]*types.Lineup{flipped}, slate, mirror, payouts, ScoreConfig{
		SimCount: 2000, Seed: 9, EntryFee: 10, Variance: 0.25, Workers: 2,
	})
	require.NoError(t, err)
	assert.Greater(t, results[0].WinRate, 0.8)
}

func TestBuildFieldModel_Deterministic(t *testing.T) {
	slate := simSlate(t)

	a, err := BuildFieldModel(slate, 25, 99)
	require.NoError(t, err)
	b, err := BuildFieldModel(slate, 25, 99)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := BuildFieldModel(slate, 25, 100)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestBuildFieldModel_EntriesAreValid(t *testing.T) {
	slate := simSlate(t)
	field, err := BuildFieldModel(slate, 200, 5)
	require.NoError(t, err)
	require.Equal(t, 200, field.Size())

	for _, entry := range field.Entries {
		require.Len(t, entry.PlayerIDs, slate.RosterSize())
		seen := map[string]bool{}
		for i, id := range entry.PlayerIDs {
			assert.False(t, seen[id], "field entry repeats player %s", id)
			seen[id] = true

			player, ok := slate.Player(id)
			require.True(t, ok)
			assert.True(t, slate.Template.Slots[i].Accepts(player),
				"player %s not eligible for slot %s", id, slate.Template.Slots[i].Name)
		}
	}
}

func TestBuildFieldModel_Errors(t *testing.T) {
	slate := simSlate(t)

	_, err := BuildFieldModel(slate, 0, 1)
	assert.Error(t, err)

	// A slot no active player can fill.
	template := simTemplate()
	template.Slots = append(template.Slots, types.RosterSlot{
		Name: "K", Eligible: []string{"K"}, SalaryMultiplier: 1.0, PointsMultiplier: 1.0,
	})
	players := []types.Player{
		simPlayer("qb1", "QB", 7000, 30, 0.35),
		simPlayer("rb1", "RB", 7500, 25, 0.40),
		simPlayer("wr1", "WR", 6800, 20, 0.30),
	}
	bad, err := types.NewSlate("dk", "nfl", "classic", 50000, template, players, 1)
	require.NoError(t, err)
	_, err = BuildFieldModel(bad, 10, 1)
	assert.Error(t, err)
}

func TestPayoutTable(t *testing.T) {
	table := PayoutTable{
		{MinRank: 1, MaxRank: 1, Payout: 100},
		{MinRank: 2, MaxRank: 5, Payout: 20},
		{MinRank: 6, MaxRank: 25, Payout: 5},
	}
	assert.Equal(t, 100.0, table.PayoutForRank(1))
	assert.Equal(t, 20.0, table.PayoutForRank(3))
	assert.Equal(t, 5.0, table.PayoutForRank(25))
	assert.Equal(t, 0.0, table.PayoutForRank(26))
	assert.Equal(t, 25, table.PaidPlaces())

	doubleUp := DoubleUpTable(100, 10)
	assert.Equal(t, 20.0, doubleUp.PayoutForRank(50))
	assert.Equal(t, 0.0, doubleUp.PayoutForRank(51))
	assert.Equal(t, 50, doubleUp.PaidPlaces())
}

func TestPlayerDistribution_Bounds(t *testing.T) {
	dist := NewPlayerDistribution(20, 0.25)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 5000; i++ {
		score := dist.Sample(rng)
		if score == 0 {
			continue // did not play
		}
		assert.GreaterOrEqual(t, score, 20*0.3)
		assert.LessOrEqual(t, score, 20*1.8)
	}

	zero := NewPlayerDistribution(0, 0.25)
	assert.Equal(t, 0.0, zero.Sample(rng))
}
