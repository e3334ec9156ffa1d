package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "A persistent, cross-platform job scheduler",
	Long: `scheduler runs local subprocess jobs on cron, one-shot, event, and
pattern triggers, with retry, priority dispatch, health monitoring, and
durable state.

Examples:
  scheduler serve                                                      # run the daemon
  scheduler add --name backup --schedule "0 * * * *" --command /usr/local/bin/backup.sh
  scheduler list --verbose
  scheduler status                                                     # aggregate stats
  scheduler status <id>                                                # single job
  scheduler trigger <id> --wait`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is the program's sole entrypoint into cobra.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to configuration file")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(versionCmd)
}
