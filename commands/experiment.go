package commands

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/logrusorgru/aurora"
	"github.com/zeu5/mdp-policy/dataset"
	"github.com/zeu5/mdp-policy/policy"
	"github.com/zeu5/mdp-policy/store"
	"github.com/zeu5/mdp-policy/types"
	"github.com/zeu5/mdp-policy/util"
)

// openStore creates and initialises the configured run store.
// The sqlite store lives in the save folder unless a target is given.
func openStore(ctx context.Context) (store.Store, error) {
	target := storeTarget
	if storeKind == "sqlite" && target == "" {
		if err := util.EnsureDir(saveFile); err != nil {
			return nil, err
		}
		target = path.Join(saveFile, "runs.db")
	}
	s, err := store.NewStore(storeKind, target)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		_ = store.CloseIfSupported(s)
		return nil, fmt.Errorf("init %s store: %w", storeKind, err)
	}
	return s, nil
}

// runExperiment loads the dataset, plans and writes the policy to out.
// The given recorders run first, then recording and plotting follow the persistent flags.
func runExperiment(ctx context.Context, name, dataPath, out string, planner types.Planner, recorders ...types.Recorder) (*types.Result, error) {
	stop, err := startProfiling()
	if err != nil {
		return nil, err
	}
	defer stop()

	start := time.Now()
	trace, err := dataset.ReadFile(dataPath)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Loaded %s records from %s in %s\n", humanize.Comma(int64(trace.Len())), dataPath, time.Since(start))

	runStore, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.CloseIfSupported(runStore)

	e := types.NewExperiment(name, planner)
	for _, r := range recorders {
		e.AddRecorder(r)
	}
	e.AddRecorder(policy.FileRecorder(out))
	e.AddRecorder(store.Recorder(runStore))
	if plot {
		e.AddRecorder(types.ConvergencePlotter(path.Join(saveFile, "plots")))
	}

	result, err := e.Run(ctx, trace)
	if err != nil {
		return nil, err
	}
	printSummary(name, out, result.Diagnostics)
	return result, nil
}

func printSummary(name, out string, d *types.Diagnostics) {
	status := aurora.Green("converged")
	if !d.Converged {
		status = aurora.Yellow("NOT converged, policy is best effort")
	}
	fmt.Printf("Experiment: %s, %s after %s iterations in %s\n", name, status, humanize.Comma(int64(d.Iterations)), d.Duration)
	fmt.Printf("States: %s, Actions: %s, Records: %s", humanize.Comma(int64(d.States)), humanize.Comma(int64(d.Actions)), humanize.Comma(int64(d.Records)))
	if d.Unobserved > 0 {
		fmt.Printf(", Unobserved pairs: %s", aurora.Yellow(humanize.Comma(int64(d.Unobserved))))
	}
	fmt.Println("")
	fmt.Printf("Policy written to %s\n", aurora.Bold(out))
}
