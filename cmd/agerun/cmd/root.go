// Package cmd implements the agerun command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes of the CLI: 0 success, 1 initialization failure, 2 runtime
// error.
const (
	exitOK      = 0
	exitInit    = 1
	exitRuntime = 2
)

// exitCode carries the process exit code out of command execution.
var exitCode = exitOK

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "agerun",
	Short: "agerun is an actor runtime for a small embedded scripting language",
	Long: `agerun runs agents that execute a small embedded scripting language.
Methods are named, versioned source texts; agents are bound to a method
version and communicate only by messages delivered through a central
dispatcher.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if exitCode == exitOK {
			exitCode = exitInit
		}
	}
	return exitCode
}
