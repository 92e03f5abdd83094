package vi

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/zeu5/mdp-policy/model"
	"github.com/zeu5/mdp-policy/types"
)

// chain MDP: 1 -a1-> 2 -a1-> 3 (reward 10); a2 goes back to 1 from 1 and 2;
// in 3, a2 pays 1 forever while a1 pays nothing.
func chainTrace() *types.Trace {
	return types.NewTraceFrom(
		types.Transition{State: 1, Action: 1, Reward: 0, NextState: 2},
		types.Transition{State: 1, Action: 2, Reward: 0, NextState: 1},
		types.Transition{State: 2, Action: 1, Reward: 10, NextState: 3},
		types.Transition{State: 2, Action: 2, Reward: 0, NextState: 1},
		types.Transition{State: 3, Action: 1, Reward: 0, NextState: 3},
		types.Transition{State: 3, Action: 2, Reward: 1, NextState: 3},
	)
}

func estimate(t *testing.T, trace *types.Trace, config model.Config) *model.Model {
	t.Helper()
	m, err := model.Estimate(context.Background(), trace,
		types.NewIndex("state", trace.StateIDs()), types.NewIndex("action", trace.ActionIDs()), config)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	return m
}

func TestRecoversOptimalPolicy(t *testing.T) {
	m := estimate(t, chainTrace(), model.DefaultConfig())
	for _, sweep := range []Sweep{InPlace, Synchronous} {
		c := DefaultConfig()
		c.Gamma = 0.9
		c.Epsilon = 1e-8
		c.Sweep = sweep
		res, err := ValueIteration(context.Background(), m, c)
		if err != nil {
			t.Fatalf("%s: %v", sweep, err)
		}
		if !res.Converged {
			t.Fatalf("%s: did not converge in %d iterations", sweep, res.Iterations)
		}
		expected := []int{1, 1, 2}
		got := res.Policy.ActionIDs()
		for i := range expected {
			if got[i] != expected[i] {
				t.Errorf("%s: expected policy %v, got %v", sweep, expected, got)
				break
			}
		}
		values := []float64{17.1, 19, 10}
		for i, v := range values {
			if math.Abs(res.U[i]-v) > 1e-6 {
				t.Errorf("%s: U(%d) = %v, expected %v", sweep, i+1, res.U[i], v)
			}
		}
	}
}

func TestDeltasShrink(t *testing.T) {
	m := estimate(t, chainTrace(), model.DefaultConfig())
	for _, sweep := range []Sweep{InPlace, Synchronous} {
		c := DefaultConfig()
		c.Sweep = sweep
		res, err := ValueIteration(context.Background(), m, c)
		if err != nil {
			t.Fatalf("%s: %v", sweep, err)
		}
		if !res.Converged || res.Iterations >= c.MaxIterations {
			t.Fatalf("%s: expected convergence, got %d iterations", sweep, res.Iterations)
		}
		if len(res.Deltas) != res.Iterations {
			t.Fatalf("%s: %d deltas for %d iterations", sweep, len(res.Deltas), res.Iterations)
		}
		for i := 1; i < len(res.Deltas); i++ {
			if res.Deltas[i] > res.Deltas[i-1]+1e-12 {
				t.Errorf("%s: delta grew at iteration %d: %v -> %v", sweep, i+1, res.Deltas[i-1], res.Deltas[i])
			}
		}
		if last := res.Deltas[len(res.Deltas)-1]; last >= c.Epsilon {
			t.Errorf("%s: last delta %v above tolerance", sweep, last)
		}
	}
}

func TestIterationCap(t *testing.T) {
	m := estimate(t, chainTrace(), model.DefaultConfig())
	c := DefaultConfig()
	c.Gamma = 0.99
	c.Epsilon = 1e-12
	c.MaxIterations = 3
	res, err := ValueIteration(context.Background(), m, c)
	if err != nil {
		t.Fatalf("value iteration: %v", err)
	}
	if res.Converged || res.Iterations != 3 {
		t.Errorf("expected 3 unconverged iterations, got %d converged=%v", res.Iterations, res.Converged)
	}
	if res.Policy == nil || len(res.Policy.Lines()) != 3 {
		t.Error("expected a best effort policy")
	}
}

func TestUnobservedPolicies(t *testing.T) {
	trace := types.NewTraceFrom(
		types.Transition{State: 1, Action: 1, Reward: -1, NextState: 1},
		types.Transition{State: 2, Action: 2, Reward: -5, NextState: 2},
		types.Transition{State: 2, Action: 1, Reward: -10, NextState: 2},
	)
	c := DefaultConfig()

	zero, err := ValueIteration(context.Background(), estimate(t, trace, model.Config{Unobserved: model.ZeroFill}), c)
	if err != nil {
		t.Fatalf("zero fill: %v", err)
	}
	if a, _ := zero.Policy.Action(1); a != 2 || zero.U[0] != 0 {
		t.Errorf("zero fill: expected the unobserved action with value 0, got %d %v", a, zero.U[0])
	}

	excluded, err := ValueIteration(context.Background(), estimate(t, trace, model.Config{Unobserved: model.Exclude}), c)
	if err != nil {
		t.Fatalf("exclude: %v", err)
	}
	if a, _ := excluded.Policy.Action(1); a != 1 {
		t.Errorf("exclude: expected observed action 1, got %d", a)
	}
	if math.Abs(excluded.U[0]-(-1/(1-c.Gamma))) > 0.1 {
		t.Errorf("exclude: U(1) = %v", excluded.U[0])
	}
}

func TestDefaultNeverPicksUnobservedActions(t *testing.T) {
	trace := types.NewTraceFrom(
		types.Transition{State: 1, Action: 1, Reward: -1, NextState: 1},
		types.Transition{State: 1, Action: 2, Reward: -2, NextState: 1},
		types.Transition{State: 2, Action: 3, Reward: -1, NextState: 2},
	)
	result, err := NewPlanner(model.DefaultConfig(), DefaultConfig()).Plan(context.Background(), trace)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	got := result.Policy.ActionIDs()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("expected only observed actions [1 3], got %v", got)
	}
	if result.Diagnostics.Unobserved != 3 {
		t.Errorf("expected 3 unobserved pairs, got %d", result.Diagnostics.Unobserved)
	}
}

func TestTieKeepsFirstAction(t *testing.T) {
	trace := types.NewTraceFrom(
		types.Transition{State: 1, Action: 1, Reward: 1, NextState: 1},
		types.Transition{State: 1, Action: 2, Reward: 1, NextState: 1},
	)
	res, err := ValueIteration(context.Background(), estimate(t, trace, model.DefaultConfig()), DefaultConfig())
	if err != nil {
		t.Fatalf("value iteration: %v", err)
	}
	if a, _ := res.Policy.Action(1); a != 1 {
		t.Errorf("expected first action on tie, got %d", a)
	}
}

func TestInvalidConfig(t *testing.T) {
	m := estimate(t, chainTrace(), model.DefaultConfig())
	for _, c := range []Config{
		{Gamma: 1, Epsilon: 0.001, MaxIterations: 10},
		{Gamma: -0.1, Epsilon: 0.001, MaxIterations: 10},
		{Gamma: 0.9, Epsilon: 0, MaxIterations: 10},
		{Gamma: 0.9, Epsilon: 0.001, MaxIterations: 0},
	} {
		if _, err := ValueIteration(context.Background(), m, c); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected invalid config for %+v, got %v", c, err)
		}
	}
}

func TestPlanner(t *testing.T) {
	iterations := 0
	c := DefaultConfig()
	c.Progress = func(int, float64) { iterations++ }
	result, err := NewPlanner(model.DefaultConfig(), c).Plan(context.Background(), chainTrace())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	d := result.Diagnostics
	if d.States != 3 || d.Actions != 2 || d.Unobserved != 0 || !d.Converged {
		t.Errorf("unexpected diagnostics %+v", d)
	}
	if iterations != d.Iterations {
		t.Errorf("progress called %d times for %d iterations", iterations, d.Iterations)
	}
	if len(result.Values) != 3 {
		t.Errorf("expected 3 values, got %d", len(result.Values))
	}
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := estimate(t, chainTrace(), model.DefaultConfig())
	if _, err := ValueIteration(ctx, m, DefaultConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestParseSweep(t *testing.T) {
	if s, err := ParseSweep("jacobi"); err != nil || s != Synchronous {
		t.Errorf("jacobi: %v %v", s, err)
	}
	if s, err := ParseSweep(""); err != nil || s != InPlace {
		t.Errorf("default: %v %v", s, err)
	}
	if _, err := ParseSweep("random"); err == nil {
		t.Error("expected error for unknown sweep")
	}
}
