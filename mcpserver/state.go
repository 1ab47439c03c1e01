package mcpserver

// State is the lifecycle state of a Runtime.
type State int

const (
	StateCreated State = iota
	StateInitialized
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Listener observes state transitions. It is called synchronously, outside
// the Runtime's lock, so it may call back into the Runtime.
type Listener func(sessionID string, from, to State)
