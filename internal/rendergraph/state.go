package rendergraph

import "fmt"

// State is the forward progress of a Graph.
type State int

const (
	StateEmpty State = iota
	StateParsed
	StateCompiled
	StateReady
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateParsed:
		return "parsed"
	case StateCompiled:
		return "compiled"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is the state together with the last failure, if any. A non-nil
// Failure means the graph is Failed(Failure) on top of State.
type Status struct {
	State   State
	Failure error
}

// Failed reports whether the last operation failed.
func (s Status) Failed() bool { return s.Failure != nil }

// String implements fmt.Stringer.
func (s Status) String() string {
	if s.Failure != nil {
		return fmt.Sprintf("failed(%v) at %s", s.Failure, s.State)
	}
	return s.State.String()
}

// noCopy makes go vet's copylocks check flag copies of a Graph.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
