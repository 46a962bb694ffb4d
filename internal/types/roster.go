package types

import "math"

// RosterSlot represents one slot of a roster template. Showdown captain
// slots carry 1.5x salary and points multipliers; every classic slot is 1.0x.
type RosterSlot struct {
	Name             string   `json:"name"`
	Eligible         []string `json:"eligible"`
	SalaryMultiplier float64  `json:"salary_multiplier"`
	PointsMultiplier float64  `json:"points_multiplier"`
}

// Accepts reports whether a player's position eligibility satisfies the slot.
func (s RosterSlot) Accepts(p Player) bool {
	for _, pos := range s.Eligible {
		if p.HasPosition(pos) {
			return true
		}
	}
	return false
}

// EffectiveSalary returns the salary charged against the cap when a player
// with the given base salary fills this slot. Multiplied salaries round down.
func (s RosterSlot) EffectiveSalary(base int) int {
	if s.SalaryMultiplier == 1.0 {
		return base
	}
	return int(math.Floor(float64(base) * s.SalaryMultiplier))
}

// EffectiveProjection returns the projection credited when a player with the
// given base projection fills this slot.
func (s RosterSlot) EffectiveProjection(base float64) float64 {
	return base * s.PointsMultiplier
}

// RosterTemplate is an ordered list of slots with per-slot eligibility.
type RosterTemplate struct {
	Name  string       `json:"name"`
	Slots []RosterSlot `json:"slots"`
}

// Size returns the number of slots in the template.
func (t RosterTemplate) Size() int {
	return len(t.Slots)
}

func classicSlot(name string, eligible ...string) RosterSlot {
	return RosterSlot{Name: name, Eligible: eligible, SalaryMultiplier: 1.0, PointsMultiplier: 1.0}
}

// NFLClassicTemplate returns the standard DraftKings classic NFL roster:
// QB, RB, RB, WR, WR, WR, TE, FLEX, DST.
func NFLClassicTemplate() RosterTemplate {
	return RosterTemplate{
		Name: "nfl_classic",
		Slots: []RosterSlot{
			classicSlot("QB", "QB"),
			classicSlot("RB1", "RB"),
			classicSlot("RB2", "RB"),
			classicSlot("WR1", "WR"),
			classicSlot("WR2", "WR"),
			classicSlot("WR3", "WR"),
			classicSlot("TE", "TE"),
			classicSlot("FLEX", "RB", "WR", "TE"),
			classicSlot("DST", "DST"),
		},
	}
}

// NBAClassicTemplate returns the standard DraftKings classic NBA roster:
// PG, SG, SF, PF, C, G, F, UTIL.
func NBAClassicTemplate() RosterTemplate {
	return RosterTemplate{
		Name: "nba_classic",
		Slots: []RosterSlot{
			classicSlot("PG", "PG"),
			classicSlot("SG", "SG"),
			classicSlot("SF", "SF"),
			classicSlot("PF", "PF"),
			classicSlot("C", "C"),
			classicSlot("G", "PG", "SG"),
			classicSlot("F", "SF", "PF"),
			classicSlot("UTIL", "PG", "SG", "SF", "PF", "C"),
		},
	}
}

// ShowdownTemplate returns a captain-mode roster: one CPT slot at 1.5x salary
// and 1.5x points, plus flexCount FLEX slots open to the given positions.
func ShowdownTemplate(flexCount int, eligible ...string) RosterTemplate {
	slots := make([]RosterSlot, 0, flexCount+1)
	slots = append(slots, RosterSlot{
		Name:             "CPT",
		Eligible:         eligible,
		SalaryMultiplier: 1.5,
		PointsMultiplier: 1.5,
	})
	for i := 0; i < flexCount; i++ {
		slots = append(slots, RosterSlot{
			Name:             "FLEX",
			Eligible:         eligible,
			SalaryMultiplier: 1.0,
			PointsMultiplier: 1.0,
		})
	}
	return RosterTemplate{Name: "showdown", Slots: slots}
}

// TemplateByName resolves the built-in templates used by the CLI slate
// loader. Returns false for an unknown name.
func TemplateByName(name string) (RosterTemplate, bool) {
	switch name {
	case "nfl_classic":
		return NFLClassicTemplate(), true
	case "nba_classic":
		return NBAClassicTemplate(), true
	case "nfl_showdown":
		return ShowdownTemplate(5, "QB", "RB", "WR", "TE", "K", "DST"), true
	}
	return RosterTemplate{}, false
}
