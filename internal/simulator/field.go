package simulator

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/lineupforge/lineup-engine/internal/types"
)

// defaultOwnership is assumed for players without a projected ownership so
// they still show up in sampled field entries.
const defaultOwnership = 0.05

// FieldEntry is one opponent roster in the simulated contest field.
// PlayerIDs follow the slate's template slot order, so slot multipliers
// apply to field entries exactly as they do to scored lineups.
type FieldEntry struct {
	PlayerIDs []string `json:"player_ids"`
}

// FieldModel is an ownership-weighted sample of a contest's other entries.
type FieldModel struct {
	Entries []FieldEntry `json:"entries"`
}

// Size returns the number of opponent entries.
func (f *FieldModel) Size() int {
	return len(f.Entries)
}

// BuildFieldModel samples size opponent entries from the slate. Each slot is
// filled by ownership-weighted draw over its eligible active players, without
// repeating a player inside one entry. Deterministic for a fixed seed.
func BuildFieldModel(slate *types.Slate, size int, seed uint64) (*FieldModel, error) {
	if size <= 0 {
		return nil, fmt.Errorf("field size must be positive, got %d", size)
	}

	// Per-slot eligible pools, computed once.
	pools := make([][]types.Player, slate.RosterSize())
	for i, slot := range slate.Template.Slots {
		for _, p := range slate.ActivePlayers() {
			if slot.Accepts(p) {
				pools[i] = append(pools[i], p)
			}
		}
		if len(pools[i]) == 0 {
			return nil, fmt.Errorf("no active players eligible for slot %s", slot.Name)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	model := &FieldModel{Entries: make([]FieldEntry, 0, size)}
	for e := 0; e < size; e++ {
		entry := FieldEntry{PlayerIDs: make([]string, 0, slate.RosterSize())}
		used := make(map[string]bool, slate.RosterSize())
		for i := range pools {
			picked := weightedPick(pools[i], used, rng)
			entry.PlayerIDs = append(entry.PlayerIDs, picked.ID)
			used[picked.ID] = true
		}
		model.Entries = append(model.Entries, entry)
	}
	return model, nil
}

// weightedPick draws an unused player with probability proportional to
// ownership. Falls back to the first unused player when the pool is nearly
// exhausted.
func weightedPick(pool []types.Player, used map[string]bool, rng *rand.Rand) types.Player {
	total := 0.0
	for _, p := range pool {
		if used[p.ID] {
			continue
		}
		total += ownershipWeight(p)
	}
	if total > 0 {
		target := rng.Float64() * total
		for _, p := range pool {
			if used[p.ID] {
				continue
			}
			target -= ownershipWeight(p)
			if target <= 0 {
				return p
			}
		}
	}
	for _, p := range pool {
		if !used[p.ID] {
			return p
		}
	}
	// Pool smaller than the roster; repeating a player only skews one field
	// entry, which is tolerable for an opponent model.
	return pool[0]
}

func ownershipWeight(p types.Player) float64 {
	if p.Ownership > 0 {
		return p.Ownership
	}
	return defaultOwnership
}

// PayoutTier pays a fixed amount to every finish between MinRank and
// MaxRank inclusive.
type PayoutTier struct {
	MinRank int     `json:"min_rank"`
	MaxRank int     `json:"max_rank"`
	Payout  float64 `json:"payout"`
}

// PayoutTable is an ordered list of payout tiers.
type PayoutTable []PayoutTier

// PayoutForRank returns the payout for a finishing rank, zero outside the
// paid places.
func (t PayoutTable) PayoutForRank(rank int) float64 {
	for _, tier := range t {
		if rank >= tier.MinRank && rank <= tier.MaxRank {
			return tier.Payout
		}
	}
	return 0
}

// PaidPlaces returns the deepest paid rank.
func (t PayoutTable) PaidPlaces() int {
	deepest := 0
	for _, tier := range t {
		if tier.MaxRank > deepest {
			deepest = tier.MaxRank
		}
	}
	return deepest
}

// DoubleUpTable pays 2x the entry fee to the top half of the field.
func DoubleUpTable(fieldSize int, entryFee float64) PayoutTable {
	return PayoutTable{{MinRank: 1, MaxRank: fieldSize / 2, Payout: entryFee * 2}}
}
