package main

import (
	"github.com/spf13/cobra"

	"github.com/rae-systems/scheduler/internal/job"
)

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a scheduled job",
	Args:  cobra.ExactArgs(1),
	Run:   runRemove,
}

func runRemove(cmd *cobra.Command, args []string) {
	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}
	if err := s.RemoveJob(job.ID(args[0])); err != nil {
		fail(err)
	}
}
