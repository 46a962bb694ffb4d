package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/lineupforge/lineup-engine/internal/types"
)

// ExposureTracker counts player appearances across an in-progress batch.
// All mutation happens on the controller goroutine; concurrent readers are
// not supported and not needed.
type ExposureTracker struct {
	counts map[string]int
	total  int
}

// NewExposureTracker creates an empty tracker.
func NewExposureTracker() *ExposureTracker {
	return &ExposureTracker{counts: make(map[string]int)}
}

// Add records an accepted lineup's players.
func (t *ExposureTracker) Add(lineup *types.Lineup) {
	for _, slot := range lineup.Slots {
		t.counts[slot.PlayerID]++
	}
	t.total++
}

// Count returns the appearances recorded for a player.
func (t *ExposureTracker) Count(playerID string) int {
	return t.counts[playerID]
}

// MaxQuota returns the appearance ceiling for a rule over a batch of size n.
func MaxQuota(rule types.ExposureRule, n int) int {
	max := rule.MaxFraction
	if max == 0 && rule.MinFraction == 0 {
		max = 1.0
	}
	return int(math.Ceil(max * float64(n)))
}

// MinQuota returns the appearance floor for a rule over a batch of size n.
func MinQuota(rule types.ExposureRule, n int) int {
	return int(math.Floor(rule.MinFraction * float64(n)))
}

// Excluded returns the players whose appearance ceiling is already reached.
func (t *ExposureTracker) Excluded(rules map[string]types.ExposureRule, n int) map[string]bool {
	excluded := make(map[string]bool)
	for id, rule := range rules {
		if t.counts[id] >= MaxQuota(rule, n) {
			excluded[id] = true
		}
	}
	return excluded
}

// Forced returns the players that must appear in every one of the remaining
// builds for their appearance floor to stay reachable. Sorted for
// deterministic solver input.
func (t *ExposureTracker) Forced(rules map[string]types.ExposureRule, n, remaining int) []string {
	var forced []string
	for id, rule := range rules {
		deficit := MinQuota(rule, n) - t.counts[id]
		if deficit > 0 && deficit >= remaining {
			forced = append(forced, id)
		}
	}
	sort.Strings(forced)
	return forced
}

// PlayerExposure is one row of an exposure report.
type PlayerExposure struct {
	PlayerID    string  `json:"player_id"`
	PlayerName  string  `json:"player_name"`
	Count       int     `json:"count"`
	Fraction    float64 `json:"fraction"`
	MinRequired float64 `json:"min_required"`
	MaxAllowed  float64 `json:"max_allowed"`
	IsViolation bool    `json:"is_violation"`
}

// Report summarizes per-player exposure over an emitted portfolio.
type Report struct {
	TotalLineups int              `json:"total_lineups"`
	Players      []PlayerExposure `json:"players"`
	Violations   []string         `json:"violations"`
}

// BuildReport computes exposure fractions and rule violations for a
// portfolio. Appearance bounds allow the rounding tolerance of one lineup:
// floor(min*n) <= count <= ceil(max*n).
func BuildReport(lineups []*types.Lineup, rules map[string]types.ExposureRule, slate *types.Slate) *Report {
	report := &Report{TotalLineups: len(lineups)}
	if len(lineups) == 0 {
		return report
	}

	counts := make(map[string]int)
	for _, lineup := range lineups {
		for _, slot := range lineup.Slots {
			counts[slot.PlayerID]++
		}
	}

	n := len(lineups)
	for id, count := range counts {
		rule := rules[id]
		row := PlayerExposure{
			PlayerID:    id,
			Count:       count,
			Fraction:    float64(count) / float64(n),
			MinRequired: rule.MinFraction,
			MaxAllowed:  rule.MaxFraction,
		}
		if player, ok := slate.Player(id); ok {
			row.PlayerName = player.Name
		}
		if count < MinQuota(rule, n) || count > MaxQuota(rule, n) {
			row.IsViolation = true
			report.Violations = append(report.Violations,
				fmt.Sprintf("player %s appears in %d of %d lineups (min %.0f%%, max %.0f%%)",
					id, count, n, rule.MinFraction*100, rule.MaxFraction*100))
		}
		report.Players = append(report.Players, row)
	}

	// Players with a minimum who never appeared.
	for id, rule := range rules {
		if counts[id] == 0 && MinQuota(rule, n) > 0 {
			report.Violations = append(report.Violations,
				fmt.Sprintf("player %s appears in 0 of %d lineups (min %.0f%%)", id, n, rule.MinFraction*100))
		}
	}

	sort.Slice(report.Players, func(i, j int) bool {
		if report.Players[i].Fraction != report.Players[j].Fraction {
			return report.Players[i].Fraction > report.Players[j].Fraction
		}
		return report.Players[i].PlayerID < report.Players[j].PlayerID
	})
	sort.Strings(report.Violations)
	return report
}
