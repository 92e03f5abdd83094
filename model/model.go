package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeu5/mdp-policy/types"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Unobserved decides how (s, a) pairs without any record are treated
type Unobserved int

const (
	// Exclude stores an all-zero row for unobserved pairs and marks them so planners never pick them
	Exclude Unobserved = iota
	// ZeroFill keeps unobserved pairs selectable with zero reward and no successor
	ZeroFill
)

func (u Unobserved) String() string {
	switch u {
	case ZeroFill:
		return "zero"
	default:
		return "exclude"
	}
}

// ParseUnobserved accepts "exclude" or "zero"
func ParseUnobserved(s string) (Unobserved, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclude":
		return Exclude, nil
	case "zero", "zero-fill", "zerofill":
		return ZeroFill, nil
	default:
		return Exclude, fmt.Errorf("unknown unobserved pair policy: %s", s)
	}
}

type Config struct {
	Unobserved Unobserved
	// Workers > 1 splits the states across goroutines
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Unobserved: Exclude,
		Workers:    1,
	}
}

// Model is the empirical MDP estimated from a transition log
type Model struct {
	States  *types.Index
	Actions *types.Index

	counts  *mat.Dense
	rewards *mat.Dense
	// transitions[a] holds T(s, a, s') at row s, column s'
	transitions []*mat.Dense
	unobserved  Unobserved
	missing     int
}

type observation struct {
	action    int
	reward    float64
	nextState int
}

// Estimate counts every (s, a, s') co-occurrence of the trace and derives
// the mean reward and the empirical transition probabilities.
// Identifiers outside the indices fail the whole estimate.
func Estimate(ctx context.Context, trace *types.Trace, states, actions *types.Index, config Config) (*Model, error) {
	if trace.Len() == 0 || states.Len() == 0 || actions.Len() == 0 {
		return nil, types.ErrEmptyDataset
	}

	nS, nA := states.Len(), actions.Len()
	m := &Model{
		States:      states,
		Actions:     actions,
		counts:      mat.NewDense(nS, nA, nil),
		rewards:     mat.NewDense(nS, nA, nil),
		transitions: make([]*mat.Dense, nA),
		unobserved:  config.Unobserved,
	}
	for a := range m.transitions {
		m.transitions[a] = mat.NewDense(nS, nS, nil)
	}

	// group by state so each worker owns disjoint rows
	byState := make([][]observation, nS)
	for i := 0; i < trace.Len(); i++ {
		tr, _ := trace.Get(i)
		s, a, sp, err := types.Positions(tr, states, actions)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		byState[s] = append(byState[s], observation{action: a, reward: tr.Reward, nextState: sp})
	}

	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > nS {
		workers = nS
	}

	g, gCtx := errgroup.WithContext(ctx)
	chunk := (nS + workers - 1) / workers
	for w := 0; w < workers; w++ {
		from, to := w*chunk, (w+1)*chunk
		if to > nS {
			to = nS
		}
		g.Go(func() error {
			for s := from; s < to; s++ {
				select {
				case <-gCtx.Done():
					return gCtx.Err()
				default:
				}
				m.estimateState(s, byState[s])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for s := 0; s < nS; s++ {
		for a := 0; a < nA; a++ {
			if m.counts.At(s, a) == 0 {
				m.missing++
			}
		}
	}
	return m, nil
}

// estimateState fills row s of every table
func (m *Model) estimateState(s int, obs []observation) {
	nA := m.Actions.Len()
	rewards := make([][]float64, nA)
	for _, o := range obs {
		rewards[o.action] = append(rewards[o.action], o.reward)
		m.transitions[o.action].Set(s, o.nextState, m.transitions[o.action].At(s, o.nextState)+1)
	}
	for a := 0; a < nA; a++ {
		count := len(rewards[a])
		m.counts.Set(s, a, float64(count))
		if count == 0 {
			continue
		}
		m.rewards.Set(s, a, stat.Mean(rewards[a], nil))
		floats.Scale(1/float64(count), m.transitions[a].RawRowView(s))
	}
}

// Count of records observed for (s, a), by dense position
func (m *Model) Count(s, a int) int {
	return int(m.counts.At(s, a))
}

// Observed reports whether at least one record exists for (s, a)
func (m *Model) Observed(s, a int) bool {
	return m.counts.At(s, a) > 0
}

// Usable reports whether planners should consider (s, a)
func (m *Model) Usable(s, a int) bool {
	return m.unobserved == ZeroFill || m.Observed(s, a)
}

// R is the mean observed reward for (s, a), zero when unobserved
func (m *Model) R(s, a int) float64 {
	return m.rewards.At(s, a)
}

// T is the empirical probability of reaching sp from s under a
func (m *Model) T(s, a, sp int) float64 {
	return m.transitions[a].At(s, sp)
}

// Row exposes T(s, a, .) without copying; callers must not modify it
func (m *Model) Row(s, a int) []float64 {
	return m.transitions[a].RawRowView(s)
}

// RowSum is 1 for observed pairs and 0 otherwise
func (m *Model) RowSum(s, a int) float64 {
	return floats.Sum(m.Row(s, a))
}

// UnobservedPairs is the number of (s, a) pairs with no record
func (m *Model) UnobservedPairs() int {
	return m.missing
}
