package commands

import (
	"github.com/spf13/cobra"
	"github.com/zeu5/mdp-policy/policy"
	"github.com/zeu5/mdp-policy/qlearning"
)

func QLearnCommand() *cobra.Command {
	config := qlearning.DefaultConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "qlearn <data.csv>",
		Short: "Extract a policy with one or more ordered Q-learning passes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = policy.Path(saveFile, "qlearn")
			}
			_, err := runExperiment(cmd.Context(), "qlearn", args[0], out, qlearning.NewPlanner(config))
			return err
		},
	}
	cmd.Flags().IntVar(&config.States, "states", 0, "Number of states, identifiers 1..states")
	cmd.Flags().IntVar(&config.Actions, "actions", 0, "Number of actions, identifiers 1..actions")
	cmd.Flags().Float64Var(&config.Alpha, "alpha", config.Alpha, "Learning rate")
	cmd.Flags().Float64Var(&config.Gamma, "gamma", config.Gamma, "Discount factor")
	cmd.Flags().IntVar(&config.Epochs, "epochs", config.Epochs, "Number of passes over the dataset")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Policy output file (default <save>/qlearn.policy)")
	cmd.MarkFlagRequired("states")
	cmd.MarkFlagRequired("actions")
	return cmd
}
