package cmd

import (
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:     "done [task...]",
	Aliases: []string{"complete"},
	Short:   "Mark one or more tasks complete",
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *tracker.Tracker) error {
			for _, key := range args {
				task, err := findTask(tr.CachedTasks(), key)
				if err != nil {
					output.Error("%v", err)
					continue
				}
				if task.Completed {
					output.Info("%q already done", task.Title)
					continue
				}

				updated, err := tr.CompleteTask(task.ID)
				if err != nil {
					output.Error("complete %q: %v", task.Title, err)
					continue
				}
				output.Success("Done: %s", updated.Title)
			}

			if !tr.Online() && tr.PendingCount() > 0 {
				output.Info("Offline; changes will sync when back online.")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
}
