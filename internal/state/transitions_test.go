package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "idle to awaiting phone", from: StateIdle, to: StateAwaitingPhone, expected: true},
		{name: "awaiting phone to awaiting name", from: StateAwaitingPhone, to: StateAwaitingName, expected: true},
		{name: "awaiting name to idle", from: StateAwaitingName, to: StateIdle, expected: true},
		{name: "idle to awaiting name invalid", from: StateIdle, to: StateAwaitingName, expected: false},
		{name: "awaiting name to awaiting phone invalid", from: StateAwaitingName, to: StateAwaitingPhone, expected: false},
		{name: "unknown state to awaiting phone invalid", from: State("unknown"), to: StateAwaitingPhone, expected: false},
		{name: "any state to idle emergency", from: State("whatever"), to: StateIdle, expected: true},
		{name: "awaiting phone back to idle", from: StateAwaitingPhone, to: StateIdle, expected: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}
