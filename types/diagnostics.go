package types

import (
	"fmt"
	"time"
)

// Diagnostics collected while planning
type Diagnostics struct {
	Method     string        `json:"method"`
	Records    int           `json:"records"`
	States     int           `json:"states"`
	Actions    int           `json:"actions"`
	Iterations int           `json:"iterations"`
	Converged  bool          `json:"converged"`
	Deltas     []float64     `json:"deltas,omitempty"`
	Unobserved int           `json:"unobserved_pairs"`
	Duration   time.Duration `json:"duration"`
}

func NewDiagnostics(method string) *Diagnostics {
	return &Diagnostics{
		Method: method,
		Deltas: make([]float64, 0),
	}
}

// AddDelta records the max absolute value change of one sweep or pass
func (d *Diagnostics) AddDelta(delta float64) {
	d.Deltas = append(d.Deltas, delta)
	d.Iterations = len(d.Deltas)
}

// LastDelta returns the most recent delta, or -1 when none was recorded
func (d *Diagnostics) LastDelta() float64 {
	if len(d.Deltas) == 0 {
		return -1
	}
	return d.Deltas[len(d.Deltas)-1]
}

func (d *Diagnostics) String() string {
	return fmt.Sprintf("%s: records=%d states=%d actions=%d iterations=%d converged=%v unobserved=%d duration=%s",
		d.Method, d.Records, d.States, d.Actions, d.Iterations, d.Converged, d.Unobserved, d.Duration)
}
