package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statekit",
		Short: "Inspect and follow statekit stores",
		Long: `statekit is the companion CLI for applications embedding the
statekit reactive store with the devtools inspector enabled.

It talks to the inspector's HTTP endpoints:

  • inspect  fetch a JSON snapshot of every cached atom
  • watch    follow the live event stream over websocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		inspectCmd(),
		watchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
