package metadata

import (
	"context"
	"fmt"
	"strconv"
)

// State is a step of the metadata resolution flow.
type State int

const (
	StateStart State = iota
	StateEmptyChosen
	StateAIChosen
	StateCustomChosen
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateEmptyChosen:
		return "empty_chosen"
	case StateAIChosen:
		return "ai_chosen"
	case StateCustomChosen:
		return "custom_chosen"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Machine tracks an interactive resolution. An invalid choice leaves the
// machine in StateStart so the caller can prompt again.
type Machine struct {
	state  State
	choice Choice
	text   string
}

// NewMachine returns a machine in StateStart.
func NewMachine() *Machine {
	return &Machine{state: StateStart}
}

// MachineFor returns a machine already advanced past StateStart for d, as if
// its choice and custom text had been entered at the prompt.
func MachineFor(d Decision) (*Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	m := NewMachine()
	if err := m.Choose(strconv.Itoa(int(d.Choice))); err != nil {
		return nil, err
	}
	if m.NeedsText() {
		m.SetText(d.CustomText)
	}
	return m, nil
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Choose parses a menu answer and advances to the matching chosen state.
func (m *Machine) Choose(input string) error {
	if m.state != StateStart {
		return fmt.Errorf("choose in state %s", m.state)
	}
	choice, err := ParseChoice(input)
	if err != nil {
		return err
	}
	m.choice = choice
	switch choice {
	case ChoiceEmpty:
		m.state = StateEmptyChosen
	case ChoiceAI:
		m.state = StateAIChosen
	case ChoiceCustom:
		m.state = StateCustomChosen
	}
	return nil
}

// NeedsText reports whether the machine is waiting for custom text.
func (m *Machine) NeedsText() bool {
	return m.state == StateCustomChosen
}

// SetText records the custom line for StateCustomChosen.
func (m *Machine) SetText(text string) {
	m.text = text
}

// Decision returns the decision the machine has collected so far.
func (m *Machine) Decision() (Decision, error) {
	switch m.state {
	case StateEmptyChosen, StateAIChosen, StateCustomChosen, StateResolved:
		return Decision{Choice: m.choice, CustomText: m.text}, nil
	default:
		return Decision{}, fmt.Errorf("no choice made (state %s)", m.state)
	}
}

// Resolve runs the resolver for the chosen branch and moves to StateResolved.
func (m *Machine) Resolve(ctx context.Context, r *Resolver, dir string, imageNames []string) (string, error) {
	if m.state == StateStart || m.state == StateResolved {
		return "", fmt.Errorf("resolve in state %s", m.state)
	}
	decision, err := m.Decision()
	if err != nil {
		return "", err
	}
	text, err := r.Resolve(ctx, dir, imageNames, decision)
	if err != nil {
		return "", err
	}
	m.state = StateResolved
	return text, nil
}
