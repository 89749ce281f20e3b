package workflow

import "fmt"

type State string

const (
	StateIdle         State = "Idle"
	StateExtracting   State = "Extracting"
	StateTransforming State = "Transforming"
	StateLoading      State = "Loading"
	StateSummarizing  State = "Summarizing"
	StateDone         State = "Done"
	StateFailed       State = "Failed"
)

// allowed transitions; Failed is reachable from every non-terminal state.
// Idle -> Summarizing is the incremental path.
var transitions = map[State][]State{
	StateIdle:         {StateExtracting, StateSummarizing, StateFailed},
	StateExtracting:   {StateTransforming, StateFailed},
	StateTransforming: {StateLoading, StateFailed},
	StateLoading:      {StateSummarizing, StateFailed},
	StateSummarizing:  {StateDone, StateFailed},
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Machine tracks one run's state and the path it took.
type Machine struct {
	state   State
	history []State
}

func NewMachine() *Machine {
	return &Machine{state: StateIdle, history: []State{StateIdle}}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) History() []State {
	return append([]State(nil), m.history...)
}

func (m *Machine) Transition(to State) error {
	for _, next := range transitions[m.state] {
		if next == to {
			m.state = to
			m.history = append(m.history, to)
			return nil
		}
	}
	return fmt.Errorf("illegal pipeline transition %s -> %s", m.state, to)
}
