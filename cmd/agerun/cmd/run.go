package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/runtime"
)

var (
	runName    string
	runVersion string
	runDir     string
	runPersist bool
)

// runCmd compiles a method source file, spawns the initial agent, runs
// the dispatcher until the queue is quiet, saves, and shuts down.
var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a method source file until the message queue is quiet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFile(args[0])
	},
}

func init() {
	runCmd.Flags().StringVar(&runName, "name", "", "method name to register the file under (default: file base name)")
	runCmd.Flags().StringVar(&runVersion, "version", "1.0.0", "method version to register")
	runCmd.Flags().StringVar(&runDir, "dir", ".", "working directory for persistence files and the log")
	runCmd.Flags().BoolVar(&runPersist, "persist", false, "mark agents of this method persistent")
	rootCmd.AddCommand(runCmd)
}

// runFile drives init, run-until-quiet, save and shutdown for one
// method source file.
func runFile(path string) error {
	name := runName
	if name == "" {
		base := filepath.Base(path)
		name = base[:len(base)-len(filepath.Ext(base))]
	}

	source, err := os.ReadFile(path)
	if err != nil {
		exitCode = exitInit
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	log, err := eventlog.New(runDir)
	if err != nil {
		exitCode = exitInit
		return err
	}
	defer log.Close()

	dispatcher := runtime.NewDispatcher(log, runDir)

	// Restore any previously persisted state before registering
	if err := dispatcher.LoadMethods(); err != nil {
		exitCode = exitInit
		return err
	}
	if err := dispatcher.LoadAgents(); err != nil {
		exitCode = exitInit
		return err
	}

	if !dispatcher.RegisterMethod(name, string(source), runVersion, runPersist) {
		exitCode = exitInit
		return fmt.Errorf("could not register method %s version %s", name, runVersion)
	}

	id := dispatcher.Init(name, runVersion)
	if id == 0 {
		exitCode = exitInit
		return fmt.Errorf("could not create the initial agent for %s", name)
	}

	processed := dispatcher.RunUntilQuiet()
	fmt.Printf("agent %d processed %d messages\n", id, processed)

	// A script error during the run is reported with exit code 2, but
	// the pipeline still saves and shuts down: state reached before the
	// failure is persisted, not lost.
	var runErr error
	if last := log.Last(eventlog.ERROR); last != nil {
		exitCode = exitRuntime
		runErr = fmt.Errorf("runtime error: %s", last.Message)
	}

	if err := dispatcher.SaveMethods(); err != nil {
		exitCode = exitRuntime
		if runErr == nil {
			runErr = err
		}
	}
	if err := dispatcher.SaveAgents(); err != nil {
		exitCode = exitRuntime
		if runErr == nil {
			runErr = err
		}
	}

	dispatcher.Shutdown()
	return runErr
}
