package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// lineupNamespace seeds deterministic lineup IDs so that two lineups with the
// same slot assignment always carry the same ID.
var lineupNamespace = uuid.MustParse("7b1f6e1a-2c3d-4d5e-8f90-a1b2c3d4e5f6")

// LineupSlot is one filled slot of an emitted lineup. Salary and Projection
// are effective values, with the slot multiplier already applied.
type LineupSlot struct {
	Slot             string  `json:"slot"`
	PlayerID         string  `json:"player_id"`
	PlayerName       string  `json:"player_name"`
	Salary           int     `json:"salary"`
	Projection       float64 `json:"projection"`
	PointsMultiplier float64 `json:"points_multiplier"`
}

// Lineup is a complete slot-to-player assignment. Lineups are immutable; a
// late-swapped lineup is a new value with a bumped Version.
type Lineup struct {
	ID              string       `json:"id"`
	Slots           []LineupSlot `json:"slots"`
	TotalSalary     int          `json:"total_salary"`
	TotalProjection float64      `json:"total_projection"`
	TotalOwnership  float64      `json:"total_ownership"`
	Approximate     bool         `json:"approximate,omitempty"`
	Version         int          `json:"version"`
}

// NewLineup builds a lineup from a per-slot player assignment against a
// slate. playerIDs must have one entry per template slot, in slot order.
func NewLineup(slate *Slate, playerIDs []string, version int) (*Lineup, error) {
	if len(playerIDs) != slate.RosterSize() {
		return nil, fmt.Errorf("assignment has %d players, template has %d slots",
			len(playerIDs), slate.RosterSize())
	}
	lineup := &Lineup{
		Slots:   make([]LineupSlot, 0, len(playerIDs)),
		Version: version,
	}
	for i, id := range playerIDs {
		player, ok := slate.Player(id)
		if !ok {
			return nil, fmt.Errorf("player %s not in slate", id)
		}
		slot := slate.Template.Slots[i]
		effSalary := slot.EffectiveSalary(player.Salary)
		effProjection := slot.EffectiveProjection(player.Projection)
		lineup.Slots = append(lineup.Slots, LineupSlot{
			Slot:             slot.Name,
			PlayerID:         player.ID,
			PlayerName:       player.Name,
			Salary:           effSalary,
			Projection:       effProjection,
			PointsMultiplier: slot.PointsMultiplier,
		})
		lineup.TotalSalary += effSalary
		lineup.TotalProjection += effProjection
		lineup.TotalOwnership += player.Ownership
	}
	lineup.ID = lineupID(lineup.Slots)
	return lineup, nil
}

func lineupID(slots []LineupSlot) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = s.Slot + ":" + s.PlayerID
	}
	return uuid.NewSHA1(lineupNamespace, []byte(strings.Join(parts, "|"))).String()
}

// PlayerIDs returns the assigned player ids in slot order.
func (l *Lineup) PlayerIDs() []string {
	ids := make([]string, len(l.Slots))
	for i, s := range l.Slots {
		ids[i] = s.PlayerID
	}
	return ids
}

// HasPlayer reports whether the lineup contains the player.
func (l *Lineup) HasPlayer(id string) bool {
	for _, s := range l.Slots {
		if s.PlayerID == id {
			return true
		}
	}
	return false
}

// Overlap counts players shared between two lineups.
func (l *Lineup) Overlap(other *Lineup) int {
	seen := make(map[string]bool, len(l.Slots))
	for _, s := range l.Slots {
		seen[s.PlayerID] = true
	}
	shared := 0
	for _, s := range other.Slots {
		if seen[s.PlayerID] {
			shared++
		}
	}
	return shared
}

// Validate asserts every lineup invariant against the given slate: slot
// count, per-slot eligibility, no duplicate players, salary within the cap
// and, when minSalary > 0, at or above the floor. Every lineup is validated
// before it is handed to a caller.
func (l *Lineup) Validate(slate *Slate, salaryCap, minSalary int) error {
	if len(l.Slots) != slate.RosterSize() {
		return fmt.Errorf("lineup has %d slots, template requires %d", len(l.Slots), slate.RosterSize())
	}
	seen := make(map[string]bool, len(l.Slots))
	salary := 0
	for i, filled := range l.Slots {
		player, ok := slate.Player(filled.PlayerID)
		if !ok {
			return fmt.Errorf("slot %s: player %s not in slate", filled.Slot, filled.PlayerID)
		}
		slot := slate.Template.Slots[i]
		if !slot.Accepts(player) {
			return fmt.Errorf("slot %s: player %s (%s) not eligible",
				slot.Name, player.Name, strings.Join(player.Positions, "/"))
		}
		if seen[player.ID] {
			return fmt.Errorf("player %s appears more than once", player.ID)
		}
		seen[player.ID] = true
		salary += slot.EffectiveSalary(player.Salary)
	}
	if salary > salaryCap {
		return fmt.Errorf("lineup salary %d exceeds cap %d", salary, salaryCap)
	}
	if minSalary > 0 && salary < minSalary {
		return fmt.Errorf("lineup salary %d below configured floor %d", salary, minSalary)
	}
	return nil
}
