package daemon

import (
	"fmt"
	"os"
)

// State is the life-cycle state of a Controller.
type State int32

const (
	StateCreated State = iota
	StateInitializing
	StateRunning
	StateReinitializing
	StateTerminating
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateReinitializing:
		return "reinitializing"
	case StateTerminating:
		return "terminating"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// EventKind distinguishes reload from terminate requests.
type EventKind int

const (
	EventReload EventKind = iota + 1
	EventTerminate
)

func (k EventKind) String() string {
	switch k {
	case EventReload:
		return "reload"
	case EventTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a request delivered to a running Controller. Signal is set when
// the request came from an OS signal.
type Event struct {
	Kind   EventKind
	Signal os.Signal
}

func (e Event) String() string {
	if e.Signal != nil {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Signal)
	}
	return e.Kind.String()
}
