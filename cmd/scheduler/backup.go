package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup <dir>",
	Short: "Copy every persisted job into dir",
	Args:  cobra.ExactArgs(1),
	Run:   runBackup,
}

func runBackup(cmd *cobra.Command, args []string) {
	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}
	if err := s.BackupJobs(args[0]); err != nil {
		fail(err)
	}
	fmt.Printf("backed up jobs to %s\n", args[0])
}
