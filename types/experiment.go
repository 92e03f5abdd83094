package types

import (
	"context"
	"fmt"
	"time"
)

// Recorder consumes the result of a finished experiment
type Recorder interface {
	Record(ctx context.Context, name string, result *Result) error
}

// RecorderFunc adapts a function to a Recorder
type RecorderFunc func(context.Context, string, *Result) error

func (f RecorderFunc) Record(ctx context.Context, name string, result *Result) error {
	return f(ctx, name, result)
}

// Experiment runs one planner over a transition log and hands the result to the recorders
type Experiment struct {
	Name      string
	planner   Planner
	recorders []Recorder
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, planner Planner) *Experiment {
	return &Experiment{
		Name:      name,
		planner:   planner,
		recorders: make([]Recorder, 0),
	}
}

// AddRecorder registers a recorder invoked after a successful run
func (e *Experiment) AddRecorder(r Recorder) {
	e.recorders = append(e.recorders, r)
}

// Run the planner once over the trace. Timing lives here so the planners stay pure.
func (e *Experiment) Run(ctx context.Context, trace *Trace) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if trace.Len() == 0 {
		return nil, fmt.Errorf("experiment %s: %w", e.Name, ErrEmptyDataset)
	}

	fmt.Printf("Running Experiment: %s (%s)\n", e.Name, e.planner.Name())
	start := time.Now()
	result, err := e.planner.Plan(ctx, trace)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", e.Name, err)
	}
	if result.Diagnostics == nil {
		result.Diagnostics = NewDiagnostics(e.planner.Name())
	}
	result.Diagnostics.Duration = time.Since(start)
	result.Diagnostics.Records = trace.Len()

	for _, r := range e.recorders {
		if err := r.Record(ctx, e.Name, result); err != nil {
			return result, fmt.Errorf("experiment %s: record: %w", e.Name, err)
		}
	}
	return result, nil
}
