package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rae-systems/scheduler/internal/job"
)

var triggerWait bool

var triggerCmd = &cobra.Command{
	Use:   "trigger <id>",
	Short: "Manually trigger a job outside its normal schedule",
	Long: `Trigger runs a job immediately without disturbing its schedule. By
default it fires and returns once the run has been dispatched; --wait
blocks until the run reaches a terminal status and prints its result.`,
	Args: cobra.ExactArgs(1),
	Run:  runTrigger,
}

func init() {
	triggerCmd.Flags().BoolVar(&triggerWait, "wait", false, "Block until the triggered run completes")
}

func runTrigger(cmd *cobra.Command, args []string) {
	id := job.ID(args[0])

	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}

	ctx := context.Background()
	s.StartExecutor(ctx)

	if triggerWait {
		result, err := s.TriggerJobSync(ctx, id)
		if err != nil {
			fail(err)
		}
		fmt.Printf("status: %s\n", result.Status)
		if result.ExitCode != nil {
			fmt.Printf("exit code: %d\n", *result.ExitCode)
		}
		if result.Stdout != "" {
			fmt.Print(result.Stdout)
		}
		if result.Stderr != "" {
			fmt.Fprint(os.Stderr, result.Stderr)
		}
		if result.Status == job.StatusFailed {
			os.Exit(1)
		}
		return
	}

	if err := s.TriggerJob(id); err != nil {
		fail(err)
	}
	// Give the worker a moment to actually pick up the request before this
	// short-lived process exits — the subprocess itself, once started,
	// keeps running independently of us.
	time.Sleep(100 * time.Millisecond)
	fmt.Printf("triggered %s\n", id)
}
