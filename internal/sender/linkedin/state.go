// internal/sender/linkedin/state.go
package linkedin

// State is one node of the delivery state machine. Every Send walks
// Start -> Authenticated -> ComposeOpened -> MessageEntered and terminates
// in Sent, Drafted, TimedOut or Failed.
type State int

const (
	StateStart State = iota
	StateUnauthenticated
	StateAwaitingManualLogin
	StateAuthenticated
	StateComposeOpened
	StateMessageEntered
	StateSent
	StateDrafted
	StateTimedOut
	StateFailed
)

var stateNames = map[State]string{
	StateStart:               "start",
	StateUnauthenticated:     "unauthenticated",
	StateAwaitingManualLogin: "awaiting_manual_login",
	StateAuthenticated:       "authenticated",
	StateComposeOpened:       "compose_opened",
	StateMessageEntered:      "message_entered",
	StateSent:                "sent",
	StateDrafted:             "drafted",
	StateTimedOut:            "timed_out",
	StateFailed:              "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the machine stops in this state.
func (s State) Terminal() bool {
	switch s {
	case StateSent, StateDrafted, StateTimedOut, StateFailed:
		return true
	}
	return false
}
