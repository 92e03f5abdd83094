package qlearning

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeu5/mdp-policy/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrInvalidConfig = errors.New("invalid q-learning config")

type Config struct {
	Alpha  float64
	Gamma  float64
	Epochs int
	// States and Actions declare the dense identifier ranges 1..States and 1..Actions
	States  int
	Actions int
}

func DefaultConfig() Config {
	return Config{
		Alpha:  0.25,
		Gamma:  0.95,
		Epochs: 1,
	}
}

func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha %v not in (0, 1]: %w", c.Alpha, ErrInvalidConfig)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma %v not in [0, 1]: %w", c.Gamma, ErrInvalidConfig)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("epochs must be positive, got %d: %w", c.Epochs, ErrInvalidConfig)
	}
	if c.States < 1 || c.Actions < 1 {
		return fmt.Errorf("states and actions must be declared, got %d and %d: %w", c.States, c.Actions, ErrInvalidConfig)
	}
	return nil
}

// QTable is a dense action-value table over declared states and actions
type QTable struct {
	states  *types.Index
	actions *types.Index
	table   *mat.Dense
}

func NewQTable(states, actions *types.Index) *QTable {
	return &QTable{
		states:  states,
		actions: actions,
		table:   mat.NewDense(states.Len(), actions.Len(), nil),
	}
}

// Get returns Q(s, a) by dense position
func (q *QTable) Get(s, a int) float64 {
	return q.table.At(s, a)
}

func (q *QTable) Set(s, a int, val float64) {
	q.table.Set(s, a, val)
}

// Max returns the best action position of s and its value, first one on ties
func (q *QTable) Max(s int) (int, float64) {
	row := q.table.RawRowView(s)
	i := floats.MaxIdx(row)
	return i, row[i]
}

// Update applies one temporal-difference step for a resolved record and
// returns the absolute change of Q(s, a)
func (q *QTable) Update(s, a int, reward float64, sp int, alpha, gamma float64) float64 {
	cur := q.table.At(s, a)
	_, next := q.Max(sp)
	delta := alpha * (reward + gamma*next - cur)
	q.table.Set(s, a, cur+delta)
	if delta < 0 {
		return -delta
	}
	return delta
}

// Policy picks the arg-max action of every declared state
func (q *QTable) Policy() *types.Policy {
	p := types.NewPolicy(q.states, q.actions)
	for s := 0; s < q.states.Len(); s++ {
		a, _ := q.Max(s)
		p.Set(s, a)
	}
	return p
}

// Values returns max_a Q(s, a) per state position
func (q *QTable) Values() []float64 {
	out := make([]float64, q.states.Len())
	for s := range out {
		_, out[s] = q.Max(s)
	}
	return out
}

type resolved struct {
	s, a, sp int
	reward   float64
}

// Learn runs config.Epochs ordered passes of Q-learning over the trace,
// starting from an all-zero table. Every record is validated before the first update.
func Learn(ctx context.Context, trace *types.Trace, config Config) (*QTable, *types.Diagnostics, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	if trace.Len() == 0 {
		return nil, nil, types.ErrEmptyDataset
	}

	states := types.NewDenseIndex("state", config.States)
	actions := types.NewDenseIndex("action", config.Actions)

	if err := types.Validate(trace, states, actions); err != nil {
		return nil, nil, err
	}
	records := make([]resolved, trace.Len())
	for i := range records {
		tr, _ := trace.Get(i)
		s, a, sp, _ := types.Positions(tr, states, actions)
		records[i] = resolved{s: s, a: a, sp: sp, reward: tr.Reward}
	}

	q := NewQTable(states, actions)
	diag := types.NewDiagnostics("q-learning")
	diag.States = states.Len()
	diag.Actions = actions.Len()

	for epoch := 0; epoch < config.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		maxDelta := 0.0
		for _, r := range records {
			if d := q.Update(r.s, r.a, r.reward, r.sp, config.Alpha, config.Gamma); d > maxDelta {
				maxDelta = d
			}
		}
		diag.AddDelta(maxDelta)
	}
	// a fixed number of passes always completes
	diag.Converged = true
	return q, diag, nil
}

// Planner adapts Learn to types.Planner
type Planner struct {
	config Config
}

var _ types.Planner = &Planner{}

func NewPlanner(config Config) *Planner {
	return &Planner{config: config}
}

func (p *Planner) Name() string {
	return "q-learning"
}

func (p *Planner) Plan(ctx context.Context, trace *types.Trace) (*types.Result, error) {
	q, diag, err := Learn(ctx, trace, p.config)
	if err != nil {
		return nil, err
	}
	return &types.Result{
		Policy:      q.Policy(),
		Diagnostics: diag,
		Values:      q.Values(),
	}, nil
}
