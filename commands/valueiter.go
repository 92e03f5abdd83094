package commands

import (
	"context"
	"fmt"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"
	"github.com/zeu5/mdp-policy/model"
	"github.com/zeu5/mdp-policy/policy"
	"github.com/zeu5/mdp-policy/types"
	"github.com/zeu5/mdp-policy/vi"
)

func ValueIterCommand() *cobra.Command {
	modelConfig := model.DefaultConfig()
	config := vi.DefaultConfig()
	var out string
	var sweep string
	var unobserved string

	cmd := &cobra.Command{
		Use:   "valueiter <data.csv>",
		Short: "Estimate the empirical MDP and extract a policy with value iteration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if config.Sweep, err = vi.ParseSweep(sweep); err != nil {
				return err
			}
			if modelConfig.Unobserved, err = model.ParseUnobserved(unobserved); err != nil {
				return err
			}
			if out == "" {
				out = policy.Path(saveFile, "valueiter")
			}

			// the live line starts with the first sweep so it does not swallow the loading output
			writer := uilive.New()
			started := false
			config.Progress = func(iteration int, delta float64) {
				if !started {
					writer.Start()
					started = true
				}
				fmt.Fprintf(writer, "Sweep: %d/%d, Max change: %.6f (tolerance %g)\n", iteration, config.MaxIterations, delta, config.Epsilon)
			}
			stopWriter := func() {
				if started {
					writer.Stop()
					started = false
				}
			}
			result, err := runExperiment(cmd.Context(), "valueiter", args[0], out, vi.NewPlanner(modelConfig, config),
				types.RecorderFunc(func(context.Context, string, *types.Result) error {
					stopWriter()
					return nil
				}))
			stopWriter()
			if err != nil {
				return err
			}
			if !result.Diagnostics.Converged {
				fmt.Printf("warning: value iteration stopped at the %d iteration cap with max change %g\n", config.MaxIterations, result.Diagnostics.LastDelta())
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&config.Gamma, "gamma", config.Gamma, "Discount factor in [0, 1)")
	cmd.Flags().Float64Var(&config.Epsilon, "epsilon", config.Epsilon, "Convergence tolerance on the max value change of a sweep")
	cmd.Flags().IntVar(&config.MaxIterations, "max-iterations", config.MaxIterations, "Iteration cap")
	cmd.Flags().StringVar(&sweep, "sweep", vi.InPlace.String(), "Sweep mode (in-place, synchronous)")
	cmd.Flags().StringVar(&unobserved, "unobserved", model.Exclude.String(), "Unobserved (s, a) pairs: exclude (never chosen) or zero")
	cmd.Flags().IntVar(&modelConfig.Workers, "workers", 1, "Goroutines estimating the model")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Policy output file (default <save>/valueiter.policy)")
	return cmd
}
