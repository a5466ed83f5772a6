package cmd

import (
	"fmt"

	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:     "show [task]",
	Short:   "Show a task with its description",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *tracker.Tracker) error {
			task, err := findTask(tr.CachedTasks(), args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if showJSON {
				return output.JSON(task)
			}

			fmt.Print(output.FormatTaskLong(task))
			if task.Description != "" {
				fmt.Println(output.RenderTaskDescription(task.Description))
			}
			return nil
		})
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(showCmd)
}
