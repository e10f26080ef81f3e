package schedule

import "fmt"

// Phase is a named, ordered stage of the per-cycle update loop. The five
// recognized phases run in declaration order, once per cycle.
type Phase int

const (
	// First runs earliest, before any game logic.
	First Phase = iota
	// PreUpdate runs before the main logic phase.
	PreUpdate
	// Update is the main logic phase.
	Update
	// PostUpdate runs after the main logic phase.
	PostUpdate
	// Last runs at the end of the cycle.
	Last

	numPhases
)

var phaseNames = [numPhases]string{
	First:      "first",
	PreUpdate:  "pre_update",
	Update:     "update",
	PostUpdate: "post_update",
	Last:       "last",
}

// String returns the phase's canonical name.
func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return fmt.Sprintf("phase#%d", int(p))
	}
	return phaseNames[p]
}

// Valid reports whether p is a recognized phase.
func (p Phase) Valid() bool {
	return p >= 0 && p < numPhases
}

// Phases returns all recognized phases in cycle order.
func Phases() []Phase {
	return []Phase{First, PreUpdate, Update, PostUpdate, Last}
}

// ParsePhase resolves a canonical phase name.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return Phase(p), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}
