package commands

import "github.com/spf13/cobra"

var (
	saveFile    string
	storeKind   string
	storeTarget string
	plot        bool
	cpuprofile  string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "mdp-policy",
		Short:         "Offline policy extraction from MDP transition logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().StringVar(&storeKind, "store", "sqlite", "Run store backend (sqlite, redis, memory)")
	rootCommand.PersistentFlags().StringVar(&storeTarget, "store-target", "", "sqlite file path or redis address of the run store (default <save>/runs.db for sqlite)")
	rootCommand.PersistentFlags().BoolVar(&plot, "plot", false, "Plot the per-iteration value change")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file inside the save folder")
	// adding the subcommands here
	rootCommand.AddCommand(QLearnCommand())
	rootCommand.AddCommand(ValueIterCommand())
	rootCommand.AddCommand(PreprocessCommand())
	rootCommand.AddCommand(RunsCommand())
	rootCommand.AddCommand(ServeCommand())
	return rootCommand
}
