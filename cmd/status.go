package cmd

import (
	"fmt"

	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show sync state and progress",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *tracker.Tracker) error {
			progress := tr.CachedProgress()

			if statusJSON {
				return output.JSON(map[string]any{
					"online":   tr.Online(),
					"pending":  tr.PendingCount(),
					"lastSync": tr.LastSync(),
					"progress": progress,
				})
			}

			fmt.Println(output.FormatSyncStatus(tr.Online(), tr.PendingCount(), tr.LastSync()))
			fmt.Print(output.SectionHeader("progress"))
			fmt.Print(output.IndentString(output.FormatProgress(&progress), 2))
			return nil
		})
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd)
}
