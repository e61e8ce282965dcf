// combatlog parses a WoW combat log and its raw companion log into fights.
package main

import (
	"fmt"
	"os"

	"github.com/OCAP2/combatlog/internal/config"

	"github.com/spf13/cobra"
)

// BuildDate and BuildCommit can be set at build time via ldflags
var (
	CurrentVersion = "0.1.0"
	BuildCommit    = "dev"
	BuildDate      = "unknown"
)

// CLI flags
var (
	configDir string
	logLevel  string
	noLogFile bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "combatlog",
	Short: "Reconstruct fights from WoW combat logs",
	Long: `combatlog reads a combat log and an optional raw companion log, groups the
events into fights and writes a snapshot with per-fight damage, healing and deaths.`,
	Version:       fmt.Sprintf("%s (%s, %s)", CurrentVersion, BuildCommit, BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "combatlog %s\n", rootCmd.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "directory containing "+config.ConfigName)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&noLogFile, "no-log-file", false, "log to stderr instead of logsDir")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(guidCmd)
	rootCmd.AddCommand(versionCmd)
}
