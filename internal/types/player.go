package types

// PlayerStatus represents a player's availability status on a slate.
type PlayerStatus string

const (
	StatusActive       PlayerStatus = "ACTIVE"
	StatusOut          PlayerStatus = "OUT"
	StatusDoubtful     PlayerStatus = "DOUBTFUL"
	StatusQuestionable PlayerStatus = "QUESTIONABLE"
	StatusGTD          PlayerStatus = "GTD"
	StatusIR           PlayerStatus = "IR"
)

// IsValid reports whether s is one of the known status values.
func (s PlayerStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusOut, StatusDoubtful, StatusQuestionable, StatusGTD, StatusIR:
		return true
	}
	return false
}

// Player represents a priced, projected player inside a slate snapshot.
// Players are immutable once loaded; a status or projection change arrives
// as part of a new slate snapshot.
type Player struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Team       string       `json:"team"`
	Positions  []string     `json:"positions"`
	Salary     int          `json:"salary"`
	Projection float64      `json:"projection"`
	Ownership  float64      `json:"ownership,omitempty"`
	Status     PlayerStatus `json:"status"`
}

// HasPosition reports whether the player is eligible at the given position.
func (p Player) HasPosition(position string) bool {
	for _, pos := range p.Positions {
		if pos == position {
			return true
		}
	}
	return false
}

// IsActive reports whether the player can be selected for an open slot.
func (p Player) IsActive() bool {
	return p.Status == StatusActive
}
