// Package cli provides the command-line interface for chanrelay.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "chanrelay",
	Short: "Harvest content from channels and websites into one Telegram channel",
	Long:  "chanrelay watches Telegram channels, websites, and RSS feeds, filters new items by keywords and blacklist phrases, and republishes them to a destination channel.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("chanrelay %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".chanrelay", "directory holding config.yaml, state.json, and the blacklist db")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
