package cmd

import (
	"fmt"

	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var editCmd = &cobra.Command{
	Use:     "edit [task]",
	Short:   "Edit task fields",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var updates models.TaskUpdate
		var flagErr error

		cmd.Flags().Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "title":
				v := f.Value.String()
				updates.Title = &v
			case "desc":
				v := f.Value.String()
				updates.Description = &v
			case "time":
				v := f.Value.String()
				updates.ScheduledTime = &v
			case "duration":
				v, _ := cmd.Flags().GetInt("duration")
				updates.DurationMinutes = &v
			case "recurring":
				r := models.Recurrence(f.Value.String())
				if !r.Valid() {
					flagErr = fmt.Errorf("invalid --recurring %q (none, daily, weekly)", f.Value.String())
					return
				}
				updates.Recurring = &r
			}
		})
		if flagErr != nil {
			return flagErr
		}

		if updates == (models.TaskUpdate{}) {
			return fmt.Errorf("nothing to change; pass at least one field flag")
		}

		return withTracker(func(tr *tracker.Tracker) error {
			task, err := findTask(tr.CachedTasks(), args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}

			updated, err := tr.UpdateTask(task.ID, updates)
			if err != nil {
				output.Error("update %q: %v", task.Title, err)
				return err
			}
			output.Success("Updated %q", updated.Title)
			return nil
		})
	},
}

func init() {
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().String("desc", "", "New description (markdown)")
	editCmd.Flags().String("time", "", "New scheduled time")
	editCmd.Flags().Int("duration", 0, "New duration in minutes")
	editCmd.Flags().String("recurring", "", "Recurrence: none, daily, weekly")
	rootCmd.AddCommand(editCmd)
}
