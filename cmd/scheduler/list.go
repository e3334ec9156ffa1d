package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listVerbose bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every scheduled job",
	Long: `List prints one line per job as "<id> - <name> - <status>". With
--verbose, each job instead prints a multi-line block with its command,
schedule, priority, and enabled state.`,
	Run: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "Print a multi-line block per job")
}

func runList(cmd *cobra.Command, args []string) {
	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}

	infos, err := s.ListJobs()
	if err != nil {
		fail(err)
	}

	for _, info := range infos {
		j := info.Job
		if !listVerbose {
			fmt.Printf("%s - %s - %s\n", j.ID, j.Name, info.Status)
			continue
		}
		fmt.Printf("%s - %s - %s\n", j.ID, j.Name, info.Status)
		fmt.Printf("  command:     %s\n", j.Command)
		if len(j.Args) > 0 {
			fmt.Printf("  args:        %v\n", j.Args)
		}
		if j.Schedule.Cron != "" {
			fmt.Printf("  cron:        %s\n", j.Schedule.Cron)
		}
		if j.Schedule.At != nil {
			fmt.Printf("  at:          %s\n", j.Schedule.At.Format("2006-01-02T15:04:05Z"))
		}
		if j.Schedule.Event != nil {
			fmt.Printf("  event:       %s %s\n", j.Schedule.Event.EventType, j.Schedule.Event.Path)
		}
		if j.Schedule.Pattern != nil {
			fmt.Printf("  pattern:     %s (threshold %.2f)\n", j.Schedule.Pattern.PatternType, j.Schedule.Pattern.Threshold)
		}
		fmt.Printf("  priority:    %s\n", j.Priority)
		fmt.Printf("  enabled:     %v\n", j.Enabled)
		fmt.Println()
	}
}
