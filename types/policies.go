package types

import (
	"context"
	"fmt"
	"strconv"
)

// Policy assigns one action to every declared state
type Policy struct {
	states  *Index
	actions *Index
	// dense action position per dense state position
	choice []int
}

// NewPolicy creates a policy over the given indices with every state mapped to the first action
func NewPolicy(states, actions *Index) *Policy {
	return &Policy{
		states:  states,
		actions: actions,
		choice:  make([]int, states.Len()),
	}
}

func (p *Policy) States() *Index {
	return p.states
}

func (p *Policy) Actions() *Index {
	return p.actions
}

// Set records the dense action position for the dense state position
func (p *Policy) Set(statePos, actionPos int) {
	p.choice[statePos] = actionPos
}

// At returns the dense action position chosen for the dense state position
func (p *Policy) At(statePos int) int {
	return p.choice[statePos]
}

// Action returns the external action identifier chosen for the external state identifier
func (p *Policy) Action(stateID int) (int, error) {
	pos, err := p.states.Pos(stateID)
	if err != nil {
		return 0, err
	}
	return p.actions.ID(p.choice[pos]), nil
}

// ActionIDs lists the external action per state in state index order
func (p *Policy) ActionIDs() []int {
	out := make([]int, len(p.choice))
	for i, a := range p.choice {
		out[i] = p.actions.ID(a)
	}
	return out
}

// Lines is the external representation, one action identifier per state
func (p *Policy) Lines() []string {
	lines := make([]string, len(p.choice))
	for i, a := range p.choice {
		lines[i] = strconv.Itoa(p.actions.ID(a))
	}
	return lines
}

func (p *Policy) String() string {
	return fmt.Sprintf("Policy(states=%d, actions=%d)", p.states.Len(), p.actions.Len())
}

// Planner turns a transition log into a policy
type Planner interface {
	Name() string
	Plan(context.Context, *Trace) (*Result, error)
}

// Result of a planning pass
type Result struct {
	Policy      *Policy
	Diagnostics *Diagnostics
	// Values holds U(s) (value iteration) or max_a Q(s, a) (Q-learning) per state position
	Values []float64
}
