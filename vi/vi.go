package vi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/zeu5/mdp-policy/model"
	"github.com/zeu5/mdp-policy/types"
	"gonum.org/v1/gonum/floats"
)

var ErrInvalidConfig = errors.New("invalid value iteration config")

// Sweep selects which value function a sweep reads from
type Sweep int

const (
	// InPlace reads values already updated earlier in the same sweep (Gauss-Seidel)
	InPlace Sweep = iota
	// Synchronous reads only the previous sweep's values (Jacobi)
	Synchronous
)

func (s Sweep) String() string {
	if s == Synchronous {
		return "synchronous"
	}
	return "in-place"
}

func ParseSweep(s string) (Sweep, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "in-place", "inplace", "gauss-seidel":
		return InPlace, nil
	case "synchronous", "sync", "jacobi":
		return Synchronous, nil
	default:
		return InPlace, fmt.Errorf("unknown sweep mode: %s", s)
	}
}

type Config struct {
	Gamma float64
	// Epsilon bounds the max absolute change of U over a sweep at convergence
	Epsilon       float64
	MaxIterations int
	Sweep         Sweep
	// Progress, when set, is called after every sweep
	Progress func(iteration int, delta float64)
}

func DefaultConfig() Config {
	return Config{
		Gamma:         0.95,
		Epsilon:       0.001,
		MaxIterations: 10000,
		Sweep:         InPlace,
	}
}

func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma >= 1 {
		return fmt.Errorf("gamma %v not in [0, 1): %w", c.Gamma, ErrInvalidConfig)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %v: %w", c.Epsilon, ErrInvalidConfig)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be positive, got %d: %w", c.MaxIterations, ErrInvalidConfig)
	}
	return nil
}

// Result of value iteration. Policy and U are best effort when Converged is false.
type Result struct {
	U          []float64
	Policy     *types.Policy
	Iterations int
	Converged  bool
	Deltas     []float64
}

// Backup returns max_a and argmax_a of R(s, a) + gamma * sum_s' T(s, a, s') U(s').
// Ties keep the first action. States without a usable action get value 0 and action 0.
func Backup(m *model.Model, s int, gamma float64, u []float64) (int, float64) {
	bestA, best := -1, math.Inf(-1)
	for a := 0; a < m.Actions.Len(); a++ {
		if !m.Usable(s, a) {
			continue
		}
		q := m.R(s, a) + gamma*floats.Dot(m.Row(s, a), u)
		if q > best {
			bestA, best = a, q
		}
	}
	if bestA == -1 {
		return 0, 0
	}
	return bestA, best
}

// ValueIteration sweeps the Bellman optimality backup over every state until the
// largest change of a sweep drops below Epsilon or MaxIterations sweeps have run.
func ValueIteration(ctx context.Context, m *model.Model, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	nS := m.States.Len()
	u := make([]float64, nS)
	prev := u
	if config.Sweep == Synchronous {
		prev = make([]float64, nS)
	}
	result := &Result{
		U:      u,
		Policy: types.NewPolicy(m.States, m.Actions),
		Deltas: make([]float64, 0),
	}

	for result.Iterations < config.MaxIterations {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		if config.Sweep == Synchronous {
			copy(prev, u)
		}

		delta := 0.0
		for s := 0; s < nS; s++ {
			a, v := Backup(m, s, config.Gamma, prev)
			if d := math.Abs(v - u[s]); d > delta {
				delta = d
			}
			u[s] = v
			result.Policy.Set(s, a)
		}

		result.Iterations++
		result.Deltas = append(result.Deltas, delta)
		if config.Progress != nil {
			config.Progress(result.Iterations, delta)
		}
		if delta < config.Epsilon {
			result.Converged = true
			break
		}
	}
	return result, nil
}

// Planner estimates the empirical model from the trace and plans on it
type Planner struct {
	modelConfig model.Config
	config      Config
}

var _ types.Planner = &Planner{}

func NewPlanner(modelConfig model.Config, config Config) *Planner {
	return &Planner{
		modelConfig: modelConfig,
		config:      config,
	}
}

func (p *Planner) Name() string {
	return "value-iteration"
}

func (p *Planner) Plan(ctx context.Context, trace *types.Trace) (*types.Result, error) {
	if err := p.config.Validate(); err != nil {
		return nil, err
	}
	states := types.NewIndex("state", trace.StateIDs())
	actions := types.NewIndex("action", trace.ActionIDs())

	m, err := model.Estimate(ctx, trace, states, actions, p.modelConfig)
	if err != nil {
		return nil, fmt.Errorf("estimate model: %w", err)
	}
	res, err := ValueIteration(ctx, m, p.config)
	if err != nil {
		return nil, err
	}

	diag := types.NewDiagnostics(p.Name())
	diag.States = states.Len()
	diag.Actions = actions.Len()
	diag.Unobserved = m.UnobservedPairs()
	diag.Deltas = res.Deltas
	diag.Iterations = res.Iterations
	diag.Converged = res.Converged

	return &types.Result{
		Policy:      res.Policy,
		Diagnostics: diag,
		Values:      res.U,
	}, nil
}
