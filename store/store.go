package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeu5/mdp-policy/types"
)

// Run is a recorded planning result
type Run struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Method      string             `json:"method"`
	CreatedAt   time.Time          `json:"created_at"`
	States      []int              `json:"states"`
	Policy      []int              `json:"policy"`
	Diagnostics *types.Diagnostics `json:"diagnostics,omitempty"`
}

// NewRun snapshots a planning result under a fresh identifier
func NewRun(name string, result *types.Result) Run {
	run := Run{
		ID:          uuid.NewString(),
		Name:        name,
		CreatedAt:   time.Now().UTC(),
		States:      result.Policy.States().IDs(),
		Policy:      result.Policy.ActionIDs(),
		Diagnostics: result.Diagnostics,
	}
	if result.Diagnostics != nil {
		run.Method = result.Diagnostics.Method
	}
	return run
}

// Action returns the recorded action for the external state identifier
func (r Run) Action(state int) (int, bool) {
	for i, s := range r.States {
		if s == state {
			return r.Policy[i], true
		}
	}
	return 0, false
}

// Store persists planning runs
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	// ListRuns returns runs ordered by creation time
	ListRuns(ctx context.Context) ([]Run, error)
}

// Recorder saves every result it receives to the store
func Recorder(s Store) types.Recorder {
	return types.RecorderFunc(func(ctx context.Context, name string, result *types.Result) error {
		run := NewRun(name, result)
		if err := s.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("save run %s: %w", run.ID, err)
		}
		fmt.Printf("Recorded run %s\n", run.ID)
		return nil
	})
}
