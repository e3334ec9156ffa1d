package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <dir>",
	Short: "Load every job file from dir into the store",
	Args:  cobra.ExactArgs(1),
	Run:   runRestore,
}

func runRestore(cmd *cobra.Command, args []string) {
	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}
	if err := s.RestoreJobs(args[0]); err != nil {
		fail(err)
	}
	fmt.Printf("restored jobs from %s\n", args[0])
}
