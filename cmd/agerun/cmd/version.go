package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is the CLI version string.
const version = "0.3.0"

// versionCmd prints the version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agerun version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("agerun version " + version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
