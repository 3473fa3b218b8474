package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/repl"
	"github.com/agerun/agerun/runtime"
)

var replDir string

// replCmd starts the interactive console.
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive agerun console",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := eventlog.New(replDir)
		if err != nil {
			exitCode = exitInit
			return err
		}
		defer log.Close()

		dispatcher := runtime.NewDispatcher(log, replDir)
		session := repl.NewRepl(version, dispatcher, log)
		return session.Start(os.Stdout)
	},
}

func init() {
	replCmd.Flags().StringVar(&replDir, "dir", ".", "working directory for persistence files and the log")
	rootCmd.AddCommand(replCmd)
}
