package main

import (
	"github.com/spf13/cobra"

	"github.com/rae-systems/scheduler/internal/job"
)

var disableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a scheduled job",
	Args:  cobra.ExactArgs(1),
	Run:   runDisable,
}

func runDisable(cmd *cobra.Command, args []string) {
	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}
	if err := s.DisableJob(job.ID(args[0])); err != nil {
		fail(err)
	}
}
