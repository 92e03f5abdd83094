package types

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned for state or action identifiers outside the declared set
	ErrOutOfRange = errors.New("identifier out of declared range")
	// ErrEmptyDataset is returned when a planner is handed no transitions
	ErrEmptyDataset = errors.New("empty transition dataset")
)

// Index maps external identifiers to dense positions [0, Len())
type Index struct {
	name      string
	ids       []int
	positions map[int]int
	// dense indices cover ids first..first+len-1 without a map
	dense bool
	first int
}

// NewIndex builds a sparse index over the given identifiers, in the given order.
// Duplicates keep their first position.
func NewIndex(name string, ids []int) *Index {
	idx := &Index{
		name:      name,
		ids:       make([]int, 0, len(ids)),
		positions: make(map[int]int, len(ids)),
	}
	for _, id := range ids {
		if _, ok := idx.positions[id]; ok {
			continue
		}
		idx.positions[id] = len(idx.ids)
		idx.ids = append(idx.ids, id)
	}
	return idx
}

// NewDenseIndex declares the identifiers 1..n
func NewDenseIndex(name string, n int) *Index {
	if n < 0 {
		n = 0
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return &Index{
		name:  name,
		ids:   ids,
		dense: true,
		first: 1,
	}
}

func (idx *Index) Name() string {
	return idx.name
}

func (idx *Index) Len() int {
	return len(idx.ids)
}

// Pos returns the dense position of id, or ErrOutOfRange
func (idx *Index) Pos(id int) (int, error) {
	if idx.dense {
		p := id - idx.first
		if p < 0 || p >= len(idx.ids) {
			return -1, fmt.Errorf("%s %d not in [%d, %d]: %w", idx.name, id, idx.first, idx.first+len(idx.ids)-1, ErrOutOfRange)
		}
		return p, nil
	}
	p, ok := idx.positions[id]
	if !ok {
		return -1, fmt.Errorf("%s %d not declared: %w", idx.name, id, ErrOutOfRange)
	}
	return p, nil
}

// ID is the external identifier at position p
func (idx *Index) ID(p int) int {
	return idx.ids[p]
}

// IDs returns a copy of all identifiers in position order
func (idx *Index) IDs() []int {
	out := make([]int, len(idx.ids))
	copy(out, idx.ids)
	return out
}

// Positions resolves a transition to dense positions against the state and action indices
func Positions(tr Transition, states, actions *Index) (s, a, sp int, err error) {
	if s, err = states.Pos(tr.State); err != nil {
		return
	}
	if a, err = actions.Pos(tr.Action); err != nil {
		return
	}
	sp, err = states.Pos(tr.NextState)
	return
}

// Validate checks every transition of the trace against the indices and
// reports the first offending record.
func Validate(t *Trace, states, actions *Index) error {
	for i := 0; i < t.Len(); i++ {
		tr, _ := t.Get(i)
		if _, _, _, err := Positions(tr, states, actions); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return nil
}
