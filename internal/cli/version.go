package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/framecut/framecut-agent/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("framecut-agent %s\n", config.Version)
		fmt.Printf("  build time: %s\n", config.BuildTime)
		fmt.Printf("  commit:     %s\n", config.GitCommit)
	},
}
