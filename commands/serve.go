package commands

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zeu5/mdp-policy/server"
	"github.com/zeu5/mdp-policy/store"
)

func ServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded policies over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePersistentStore(); err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			runStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.CloseIfSupported(runStore)

			fmt.Printf("Serving runs from the %s store on %s\n", storeKind, addr)
			return server.NewServer(addr, runStore).Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7074", "Listen address")
	return cmd
}
