package simulator

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// Outcome bounds relative to projection, matching observed DFS scoring
	// spread. A small DNP chance zeroes the score outright.
	floorMultiplier   = 0.3
	ceilingMultiplier = 1.8
	dnpProbability    = 0.02
)

// PlayerDistribution draws per-simulation fantasy scores for one player from
// Normal(projection, projection*k), truncated to the floor/ceiling band.
type PlayerDistribution struct {
	projection float64
	sigma      float64
}

// NewPlayerDistribution builds a distribution with standard deviation
// projection*variance.
func NewPlayerDistribution(projection, variance float64) *PlayerDistribution {
	return &PlayerDistribution{
		projection: projection,
		sigma:      projection * variance,
	}
}

// Sample draws one outcome using the provided source.
func (d *PlayerDistribution) Sample(rng *rand.Rand) float64 {
	if d.projection <= 0 {
		return 0
	}
	if rng.Float64() < dnpProbability {
		return 0
	}
	normal := distuv.Normal{Mu: d.projection, Sigma: d.sigma, Src: rng}
	score := normal.Rand()

	min := d.projection * floorMultiplier
	max := d.projection * ceilingMultiplier
	if score < min {
		score = min
	}
	if score > max {
		score = max
	}
	return score
}
