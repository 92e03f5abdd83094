package main

import (
	"context"
	"fmt"
	"os"

	"github.com/zeu5/mdp-policy/commands"
)

// main entry point to the planners
func main() {
	// rootCommand defines a command line argument parser (some arguments and a subcommand to run)
	rootCommand := commands.GetRootCommand()
	if err := rootCommand.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
