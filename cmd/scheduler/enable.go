package main

import (
	"github.com/spf13/cobra"

	"github.com/rae-systems/scheduler/internal/job"
)

var enableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a scheduled job",
	Args:  cobra.ExactArgs(1),
	Run:   runEnable,
}

func runEnable(cmd *cobra.Command, args []string) {
	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}
	if err := s.EnableJob(job.ID(args[0])); err != nil {
		fail(err)
	}
}
