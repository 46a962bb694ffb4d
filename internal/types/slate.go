package types

import (
	"fmt"
	"time"
)

// Slate is an immutable snapshot of a contest's player pool and roster rules.
// A refreshed slate (new statuses or projections) is a new snapshot with a
// higher Version, never an in-place mutation.
type Slate struct {
	Site      string         `json:"site"`
	Sport     string         `json:"sport"`
	Mode      string         `json:"mode"`
	SalaryCap int            `json:"salary_cap"`
	Template  RosterTemplate `json:"template"`
	Players   []Player       `json:"players"`
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`

	byID map[string]int
}

// NewSlate validates and builds a slate snapshot.
func NewSlate(site, sport, mode string, salaryCap int, template RosterTemplate, players []Player, version int) (*Slate, error) {
	if salaryCap <= 0 {
		return nil, fmt.Errorf("slate salary cap must be positive, got %d", salaryCap)
	}
	if template.Size() == 0 {
		return nil, fmt.Errorf("roster template has no slots")
	}
	byID := make(map[string]int, len(players))
	for i, p := range players {
		if p.ID == "" {
			return nil, fmt.Errorf("player %q has empty id", p.Name)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate player id %s in slate", p.ID)
		}
		if p.Salary < 0 {
			return nil, fmt.Errorf("player %s has negative salary %d", p.ID, p.Salary)
		}
		if p.Projection < 0 {
			return nil, fmt.Errorf("player %s has negative projection %f", p.ID, p.Projection)
		}
		if len(p.Positions) == 0 {
			return nil, fmt.Errorf("player %s has no position eligibility", p.ID)
		}
		if p.Status == "" {
			players[i].Status = StatusActive
		} else if !p.Status.IsValid() {
			return nil, fmt.Errorf("player %s has unknown status %q", p.ID, p.Status)
		}
		byID[p.ID] = i
	}
	return &Slate{
		Site:      site,
		Sport:     sport,
		Mode:      mode,
		SalaryCap: salaryCap,
		Template:  template,
		Players:   players,
		Version:   version,
		CreatedAt: time.Now().UTC(),
		byID:      byID,
	}, nil
}

// Player looks up a player by id.
func (s *Slate) Player(id string) (Player, bool) {
	if s.byID != nil {
		if i, ok := s.byID[id]; ok {
			return s.Players[i], true
		}
		return Player{}, false
	}
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// ActivePlayers returns the subset of the pool with ACTIVE status.
func (s *Slate) ActivePlayers() []Player {
	active := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active
}

// RosterSize returns the number of slots on the slate's template.
func (s *Slate) RosterSize() int {
	return s.Template.Size()
}
