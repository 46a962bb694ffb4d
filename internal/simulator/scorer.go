// Package simulator estimates contest outcomes for generated lineups by
// Monte Carlo draw against an ownership-weighted opponent field. Scoring is
// a pure function of its inputs and deterministic for a fixed seed.
package simulator

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/lineupforge/lineup-engine/internal/types"
	"github.com/lineupforge/lineup-engine/pkg/logger"
)

// ScoreConfig parameterizes portfolio scoring.
type ScoreConfig struct {
	SimCount int
	Seed     uint64
	EntryFee float64
	// Variance scales each player's standard deviation: sigma = projection*Variance.
	Variance float64
	Workers  int
}

// ScoreResult summarizes simulated contest outcomes for one lineup.
type ScoreResult struct {
	LineupID string  `json:"lineup_id"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Median   float64 `json:"median"`
	P90      float64 `json:"p90"`
	WinRate  float64 `json:"win_rate"`
	CashRate float64 `json:"cash_rate"`
	ROI      float64 `json:"roi"`
}

// ScorePortfolio runs cfg.SimCount simulations of the contest. In every
// simulation each slate player gets one score draw shared by every lineup
// and field entry that rosters them, so outcomes stay correlated the way a
// real contest's are.
func ScorePortfolio(lineups []*types.Lineup, slate *types.Slate, field *FieldModel, payouts PayoutTable, cfg ScoreConfig) ([]ScoreResult, error) {
	if len(lineups) == 0 {
		return nil, fmt.Errorf("no lineups to score")
	}
	if cfg.SimCount <= 0 {
		return nil, fmt.Errorf("simulation count must be positive, got %d", cfg.SimCount)
	}
	if field == nil || field.Size() == 0 {
		return nil, fmt.Errorf("field model is empty")
	}
	variance := cfg.Variance
	if variance <= 0 {
		variance = 0.25
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	log := logger.WithComponent("simulator").WithFields(logrus.Fields{
		"lineups":    len(lineups),
		"field_size": field.Size(),
		"sim_count":  cfg.SimCount,
		"seed":       cfg.Seed,
	})
	log.Info("Starting portfolio scoring")

	dists := make(map[string]*PlayerDistribution, len(slate.Players))
	for _, p := range slate.Players {
		dists[p.ID] = NewPlayerDistribution(p.Projection, variance)
	}

	// scores[l][s] and payoutsWon[l][s], indexed by lineup then simulation.
	// Each simulation derives its own seed, so worker scheduling cannot
	// change the result.
	scores := make([][]float64, len(lineups))
	payoutsWon := make([][]float64, len(lineups))
	wins := make([][]bool, len(lineups))
	cashes := make([][]bool, len(lineups))
	for l := range lineups {
		scores[l] = make([]float64, cfg.SimCount)
		payoutsWon[l] = make([]float64, cfg.SimCount)
		wins[l] = make([]bool, cfg.SimCount)
		cashes[l] = make([]bool, cfg.SimCount)
	}

	simChan := make(chan int, cfg.SimCount)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sim := range simChan {
				runSimulation(sim, lineups, slate, field, payouts, dists, cfg, scores, payoutsWon, wins, cashes)
			}
		}()
	}
	for sim := 0; sim < cfg.SimCount; sim++ {
		simChan <- sim
	}
	close(simChan)
	wg.Wait()

	results := make([]ScoreResult, len(lineups))
	for l, lineup := range lineups {
		results[l] = aggregate(lineup.ID, scores[l], payoutsWon[l], wins[l], cashes[l], cfg.EntryFee)
	}
	log.Info("Portfolio scoring completed")
	return results, nil
}

func runSimulation(sim int, lineups []*types.Lineup, slate *types.Slate, field *FieldModel,
	payouts PayoutTable, dists map[string]*PlayerDistribution, cfg ScoreConfig,
	scores, payoutsWon [][]float64, wins, cashes [][]bool) {

	rng := rand.New(rand.NewSource(cfg.Seed + uint64(sim)*0x9e3779b97f4a7c15))

	// One draw per player per simulation, in slate order for determinism.
	outcomes := make(map[string]float64, len(slate.Players))
	for _, p := range slate.Players {
		outcomes[p.ID] = dists[p.ID].Sample(rng)
	}

	// Field entries are slot-ordered, so captain-mode entries get the same
	// point multipliers the scored lineups do.
	fieldScores := make([]float64, field.Size())
	for i, entry := range field.Entries {
		total := 0.0
		for s, id := range entry.PlayerIDs {
			total += outcomes[id] * slate.Template.Slots[s].PointsMultiplier
		}
		fieldScores[i] = total
	}

	paidPlaces := payouts.PaidPlaces()
	for l, lineup := range lineups {
		total := 0.0
		for _, slot := range lineup.Slots {
			total += outcomes[slot.PlayerID] * slot.PointsMultiplier
		}
		rank := 1
		for _, fs := range fieldScores {
			if fs > total {
				rank++
			}
		}
		scores[l][sim] = total
		payoutsWon[l][sim] = payouts.PayoutForRank(rank)
		wins[l][sim] = rank == 1
		cashes[l][sim] = rank <= paidPlaces
	}
}

func aggregate(lineupID string, scores, payoutsWon []float64, wins, cashes []bool, entryFee float64) ScoreResult {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	n := float64(len(scores))
	winCount, cashCount := 0, 0
	for i := range wins {
		if wins[i] {
			winCount++
		}
		if cashes[i] {
			cashCount++
		}
	}

	result := ScoreResult{
		LineupID: lineupID,
		Mean:     stat.Mean(scores, nil),
		StdDev:   stat.StdDev(scores, nil),
		Median:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:      stat.Quantile(0.9, stat.Empirical, sorted, nil),
		WinRate:  float64(winCount) / n,
		CashRate: float64(cashCount) / n,
	}
	if entryFee > 0 {
		result.ROI = (stat.Mean(payoutsWon, nil) - entryFee) / entryFee
	}
	return result
}
