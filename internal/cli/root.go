// Package cli wires the cobra command tree for the framecut-agent binary.
// The bare command runs the agent; subcommands cover one-shot tasks that do
// not need the HTTP server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "framecut-agent",
	Short: "Local-first media timeline editing agent",
	Long: `framecut-agent hosts a frame-accurate editing timeline behind a
localhost HTTP API. Projects persist to SQLite, media analysis runs through
background jobs, and finished timelines export as EDL or JSON cutlists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent (same as the bare command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(exportCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
