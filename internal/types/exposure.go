package types

// ExposureRule bounds the fraction of a generated batch in which a player
// may appear. Both fractions live in [0,1]; a zero-value rule means no
// minimum and no effective maximum.
type ExposureRule struct {
	MinFraction float64 `json:"min_fraction"`
	MaxFraction float64 `json:"max_fraction"`
}

// LockPhase describes how far a lineup's slate has progressed toward lock.
type LockPhase string

const (
	PhaseOpen            LockPhase = "OPEN"
	PhasePartiallyLocked LockPhase = "PARTIALLY_LOCKED"
	PhaseFinal           LockPhase = "FINAL"
)

// LockState pins players into slots during late swap. Keys are slot indexes
// into the roster template; values are the locked player ids. The phase
// transitions are driven externally by game start times.
type LockState struct {
	Locked map[int]string `json:"locked"`
}

// NewLockState returns an empty (fully open) lock state.
func NewLockState() *LockState {
	return &LockState{Locked: make(map[int]string)}
}

// Lock pins a player into a slot.
func (ls *LockState) Lock(slotIndex int, playerID string) {
	if ls.Locked == nil {
		ls.Locked = make(map[int]string)
	}
	ls.Locked[slotIndex] = playerID
}

// IsLocked reports whether the slot is pinned.
func (ls *LockState) IsLocked(slotIndex int) bool {
	if ls == nil {
		return false
	}
	_, ok := ls.Locked[slotIndex]
	return ok
}

// Phase derives the lock phase for a roster of the given size.
func (ls *LockState) Phase(rosterSize int) LockPhase {
	if ls == nil || len(ls.Locked) == 0 {
		return PhaseOpen
	}
	if len(ls.Locked) >= rosterSize {
		return PhaseFinal
	}
	return PhasePartiallyLocked
}
