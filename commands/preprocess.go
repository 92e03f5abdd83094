package commands

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/zeu5/mdp-policy/pitch"
)

func PreprocessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess <pitches.csv> <out.csv>",
		Short: "Turn raw pitch-by-pitch data into an s,a,r,sp transition dataset",
		Long: "Turn raw pitch-by-pitch data into an s,a,r,sp transition dataset.\n\n" +
			"States (0-287, terminal 288) and actions (0-62) are 0-based, so the output feeds\n" +
			"valueiter directly. qlearn declares dense 1-based identifiers and rejects state 0.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			trace, err := pitch.TransformFile(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s transitions to %s in %s\n", humanize.Comma(int64(trace.Len())), args[1], time.Since(start))
			return nil
		},
	}
}
