package cmd

import (
	"fmt"
	"strings"

	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	addDesc      string
	addTime      string
	addDuration  int
	addRecurring string
)

var addCmd = &cobra.Command{
	Use:     "add [title]",
	Short:   "Add a new task",
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return fmt.Errorf("title required")
		}

		recurring := models.Recurrence(addRecurring)
		if !recurring.Valid() {
			return fmt.Errorf("invalid --recurring %q (none, daily, weekly)", addRecurring)
		}

		return withTracker(func(tr *tracker.Tracker) error {
			task, err := tr.CreateTask(models.InsertTask{
				Title:           title,
				Description:     addDesc,
				ScheduledTime:   addTime,
				DurationMinutes: addDuration,
				Recurring:       recurring,
			})
			if err != nil {
				output.Error("%v", err)
				return err
			}

			output.Success("Added %q", task.Title)
			if task.ID.IsLocal() {
				output.Info("Saved locally; will sync when back online.")
			}
			return nil
		})
	},
}

func init() {
	addCmd.Flags().StringVarP(&addDesc, "desc", "d", "", "Task description (markdown)")
	addCmd.Flags().StringVarP(&addTime, "time", "t", "", "Scheduled time, e.g. 07:30")
	addCmd.Flags().IntVar(&addDuration, "duration", 0, "Duration in minutes")
	addCmd.Flags().StringVarP(&addRecurring, "recurring", "r", "none", "Recurrence: none, daily, weekly")
	rootCmd.AddCommand(addCmd)
}
