// Package cli implements the recipebox command line.
package cli

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "recipebox",
	Short: "Recipe box service and tools",
	Long: `recipebox serves recipes over HTTP with likes, serving scaling and
nutrition facts, and offers small tools that talk to a running server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
