package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:     "rm [task]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *tracker.Tracker) error {
			task, err := findTask(tr.CachedTasks(), args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if !rmForce {
				confirmed := false
				form := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete %q?", task.Title)).
						Value(&confirmed),
				))
				if err := form.Run(); err != nil {
					return err
				}
				if !confirmed {
					output.Info("Kept %q", task.Title)
					return nil
				}
			}

			if _, err := tr.DeleteTask(task.ID); err != nil {
				output.Error("delete %q: %v", task.Title, err)
				return err
			}
			output.Success("Deleted %q", task.Title)
			return nil
		})
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Skip confirmation")
	rootCmd.AddCommand(rmCmd)
}
