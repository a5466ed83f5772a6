package cmd

import (
	"fmt"

	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	listAll  bool
	listDone bool
	listJSON bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks from the local cache",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *tracker.Tracker) error {
			tasks := tr.CachedTasks()

			filtered := tasks[:0:0]
			for _, task := range tasks {
				switch {
				case listAll:
					filtered = append(filtered, task)
				case listDone && task.Completed:
					filtered = append(filtered, task)
				case !listDone && !task.Completed:
					filtered = append(filtered, task)
				}
			}

			if listJSON {
				return output.JSON(filtered)
			}

			if len(filtered) == 0 {
				output.Info("No tasks. Add one with: sprout add \"Brush teeth\"")
				return nil
			}
			for i := range filtered {
				fmt.Println(output.FormatTaskShort(&filtered[i]))
			}
			if pending := tr.PendingCount(); pending > 0 {
				output.Warning("%d change(s) waiting to sync", pending)
			}
			return nil
		})
	},
}

// findTask resolves a task by exact id or unique title prefix.
func findTask(tasks []models.Task, key string) (*models.Task, error) {
	for i := range tasks {
		if tasks[i].ID.String() == key {
			return &tasks[i], nil
		}
	}
	var match *models.Task
	for i := range tasks {
		if len(tasks[i].Title) >= len(key) && tasks[i].Title[:len(key)] == key {
			if match != nil {
				return nil, fmt.Errorf("%q matches multiple tasks", key)
			}
			match = &tasks[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no task matching %q", key)
	}
	return match, nil
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include completed tasks")
	listCmd.Flags().BoolVar(&listDone, "done", false, "Only completed tasks")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(listCmd)
}
