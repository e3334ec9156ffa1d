package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rae-systems/scheduler/internal/job"
	"github.com/rae-systems/scheduler/internal/scheduler"
)

var statusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show a single job's status, or the aggregate scheduler status",
	Long: `With an id, prints that job's status. With no arguments, prints the
aggregate Scheduler Status: job counts by state, average execution time,
success rate, and on-disk store size.

Live status (Running, recent success rate, ...) is only meaningful while
the "scheduler serve" daemon that executes jobs is itself running — the
on-disk store records job definitions, not live execution state.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}

	if len(args) == 1 {
		runJobStatus(s, job.ID(args[0]))
		return
	}
	runAggregateStatus(s)
}

func runJobStatus(s *scheduler.Scheduler, id job.ID) {
	infos, err := s.ListJobs()
	if err != nil {
		fail(err)
	}
	for _, info := range infos {
		if info.Job.ID != id {
			continue
		}
		fmt.Printf("id:       %s\n", info.Job.ID)
		fmt.Printf("name:     %s\n", info.Job.Name)
		fmt.Printf("status:   %s\n", info.Status)
		fmt.Printf("command:  %s\n", info.Job.Command)
		fmt.Printf("priority: %s\n", info.Job.Priority)
		fmt.Printf("enabled:  %v\n", info.Job.Enabled)
		return
	}
	fmt.Fprintf(os.Stderr, "%v: job %s\n", job.ErrNotFound, id)
	os.Exit(2)
}

func runAggregateStatus(s *scheduler.Scheduler) {
	stats := s.Stats()
	fmt.Println("Scheduler Status:")
	fmt.Printf("  total jobs:       %d\n", stats.TotalJobs)
	fmt.Printf("  running:          %d\n", stats.RunningJobs)
	fmt.Printf("  completed:        %d\n", stats.CompletedJobs)
	fmt.Printf("  failed:           %d\n", stats.FailedJobs)
	fmt.Printf("  cancelled:        %d\n", stats.CancelledJobs)
	fmt.Printf("  avg exec time:    %.2fs\n", stats.AverageExecutionTime)
	fmt.Printf("  success rate:     %.1f%%\n", stats.SuccessRate*100)

	if storageStats, err := s.StorageStats(); err == nil {
		fmt.Printf("  store files:      %d\n", storageStats.TotalFiles)
		fmt.Printf("  store bytes:      %d\n", storageStats.TotalBytes)
	}
}
