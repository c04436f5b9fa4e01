package pairing

// State is a pairing session state.
type State int

const (
	StateIdle State = iota
	StateInitiated
	StatePolling
	StateConfirmed
	StateRejected
	StateExpired
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateInitiated: "initiated",
	StatePolling:   "polling",
	StateConfirmed: "confirmed",
	StateRejected:  "rejected",
	StateExpired:   "expired",
	StateCancelled: "cancelled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	switch s {
	case StateConfirmed, StateRejected, StateExpired, StateCancelled:
		return true
	}
	return false
}
