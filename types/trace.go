package types

import (
	"golang.org/x/exp/slices"
)

// Transition is a single observed (s, a, r, s') record
type Transition struct {
	State     int
	Action    int
	Reward    float64
	NextState int
}

// Trace is the ordered transition log the planners consume.
// Order matters for Q-learning, the model estimator treats it as a bag.
type Trace struct {
	transitions []Transition
}

func NewTrace() *Trace {
	return &Trace{
		transitions: make([]Transition, 0),
	}
}

func NewTraceFrom(transitions ...Transition) *Trace {
	t := NewTrace()
	for _, tr := range transitions {
		t.Append(tr.State, tr.Action, tr.Reward, tr.NextState)
	}
	return t
}

func (t *Trace) Append(state, action int, reward float64, nextState int) {
	t.transitions = append(t.transitions, Transition{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: nextState,
	})
}

func (t *Trace) Len() int {
	return len(t.transitions)
}

func (t *Trace) Get(i int) (Transition, bool) {
	if i < 0 || i >= len(t.transitions) {
		return Transition{}, false
	}
	return t.transitions[i], true
}

// StateIDs returns the distinct sorted union of the observed s and sp values
func (t *Trace) StateIDs() []int {
	ids := make([]int, 0, 2*len(t.transitions))
	for _, tr := range t.transitions {
		ids = append(ids, tr.State, tr.NextState)
	}
	return distinctSorted(ids)
}

// ActionIDs returns the distinct sorted observed actions
func (t *Trace) ActionIDs() []int {
	ids := make([]int, 0, len(t.transitions))
	for _, tr := range t.transitions {
		ids = append(ids, tr.Action)
	}
	return distinctSorted(ids)
}

func distinctSorted(ids []int) []int {
	slices.Sort(ids)
	return slices.Compact(ids)
}
