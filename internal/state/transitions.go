package state

// validTransitions contains the permitted registration-flow transitions.
// Returning to idle is always allowed and handled in IsTransitionAllowed.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAwaitingPhone,
	},
	StateAwaitingPhone: {
		StateAwaitingName,
	},
	StateAwaitingName: {
		StateIdle,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
