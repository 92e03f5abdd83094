package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"github.com/zeu5/mdp-policy/store"
)

// requirePersistentStore rejects the memory store for commands that only read runs
func requirePersistentStore() error {
	if storeKind == "" || storeKind == "memory" {
		return fmt.Errorf("the memory store holds no runs from earlier invocations, use --store sqlite or redis")
	}
	return nil
}

func RunsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "runs [id]",
		Short: "List recorded runs or print the policy of one",
		Long: "List recorded runs or print the policy of one. Runs are read from the persistent store\n" +
			"(sqlite in <save>/runs.db by default); the memory store is empty in a fresh process.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePersistentStore(); err != nil {
				return err
			}
			ctx := cmd.Context()
			runStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.CloseIfSupported(runStore)

			if len(args) == 1 {
				run, ok, err := runStore.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("run %s not found", args[0])
				}
				for _, a := range run.Policy {
					fmt.Println(a)
				}
				return nil
			}

			runs, err := runStore.ListRuns(ctx)
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Printf("%s  %-16s %-16s states=%-8s %s\n", aurora.Bold(run.ID), run.Name, run.Method,
					humanize.Comma(int64(len(run.States))), humanize.Time(run.CreatedAt))
			}
			return nil
		},
	}
}
