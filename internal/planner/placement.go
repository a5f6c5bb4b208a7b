package planner

// Phase is the step of the block placement gesture.
type Phase int

const (
	// PhaseIdle: the next two-night block starts a new meal.
	PhaseIdle Phase = iota
	// PhaseAwaitingSecondNight: the next two-night block links the anchored
	// meal onto a second day.
	PhaseAwaitingSecondNight
)

func (p Phase) String() string {
	if p == PhaseAwaitingSecondNight {
		return "awaitingSecondNight"
	}
	return "idle"
}

// Placement is the tagged placement state. MealID is set only while
// awaiting a second night.
type Placement struct {
	Phase  Phase
	MealID string
}

// Idle is the resting placement state.
func Idle() Placement {
	return Placement{Phase: PhaseIdle}
}

// AwaitingSecondNight is the state between anchoring a two-night meal and
// choosing its continuation day.
func AwaitingSecondNight(mealID string) Placement {
	return Placement{Phase: PhaseAwaitingSecondNight, MealID: mealID}
}

// Awaiting reports whether a two-night meal waits for its second night.
func (p Placement) Awaiting() bool {
	return p.Phase == PhaseAwaitingSecondNight
}
