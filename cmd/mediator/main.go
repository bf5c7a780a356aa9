// Command mediator supervises parallel AI coding-assistant workers: it
// spawns each one behind a pseudo-terminal, mediates their confirmation
// prompts through the Hybrid Decision Engine, and exposes the fleet over
// a REST/WebSocket gateway.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaykit/mediator/logger"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "mediator",
	Short: "Supervise parallel AI coding-assistant workers",
	Long: `mediator spawns, monitors and mediates AI coding-assistant
subprocesses through a pseudo-terminal, judging their confirmation
prompts with a rule engine backed by an AI advisor, and streaming
every worker's dialogue and status over a REST/WebSocket gateway.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() != "show" {
			if err := logger.Initialize(false); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "verbosity count (-v, -vv, -vvv); logging stays at info level whatever the count")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
