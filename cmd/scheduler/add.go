package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rae-systems/scheduler/internal/job"
	"github.com/rae-systems/scheduler/internal/scheduler"
)

var (
	addName         string
	addSchedule     string
	addAt           string
	addCommand      string
	addArgs         []string
	addTimezone     string
	addDescription  string
	addWorkingDir   string
	addPriority     string
	addMaxAttempts  int
	addRetryDelay   int
	addEnv          []string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new scheduled job",
	Long: `Add a new job, triggered by a cron expression (--schedule) and/or a
one-shot timestamp (--at). Exits 0 and prints the new job's id on
success, exits 2 on a validation error (bad cron, empty command, ...).`,
	Run: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "Job name (required)")
	addCmd.Flags().StringVar(&addSchedule, "schedule", "", "Cron expression, e.g. \"0 * * * *\"")
	addCmd.Flags().StringVar(&addAt, "at", "", "One-shot RFC 3339 timestamp")
	addCmd.Flags().StringVar(&addCommand, "command", "", "Command to run (required)")
	addCmd.Flags().StringArrayVar(&addArgs, "args", nil, "Command argument (repeatable)")
	addCmd.Flags().StringVar(&addTimezone, "timezone", "", "IANA timezone for cron evaluation (default UTC)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Human-readable description")
	addCmd.Flags().StringVar(&addWorkingDir, "working-dir", "", "Working directory for the command")
	addCmd.Flags().StringVar(&addPriority, "priority", "Normal", "Dispatch priority: Low|Normal|High|Critical")
	addCmd.Flags().IntVar(&addMaxAttempts, "max-attempts", 3, "Maximum retry attempts")
	addCmd.Flags().IntVar(&addRetryDelay, "retry-delay", 60, "Base retry delay in seconds")
	addCmd.Flags().StringArrayVar(&addEnv, "env", nil, "Environment variable KEY=VALUE (repeatable)")

	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("command")
}

func runAdd(cmd *cobra.Command, args []string) {
	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}

	j := job.New(addName, addCommand)
	j.Description = addDescription
	j.Args = addArgs
	j.WorkingDir = addWorkingDir

	priority, err := job.ParsePriority(addPriority)
	if err != nil {
		fail(err)
	}
	j.Priority = priority

	j.RetryPolicy.MaxAttempts = addMaxAttempts
	j.RetryPolicy.DelaySeconds = addRetryDelay

	if len(addEnv) > 0 {
		env := make(map[string]string, len(addEnv))
		for _, kv := range addEnv {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				fail(fmt.Errorf("%w: --env %q must be KEY=VALUE", job.ErrValidation, kv))
			}
			env[k] = v
		}
		j.Env = env
	}

	sched := job.Schedule{Cron: addSchedule, Timezone: addTimezone}
	if addAt != "" {
		at, err := parseAt(addAt)
		if err != nil {
			fail(fmt.Errorf("%w: parsing --at: %v", job.ErrValidation, err))
		}
		sched.At = &at
	}
	j.Schedule = sched

	if err := scheduler.ValidateSchedule(j.Schedule); err != nil {
		fail(err)
	}

	id, err := s.AddJob(j)
	if err != nil {
		fail(err)
	}
	fmt.Println(id)
}
