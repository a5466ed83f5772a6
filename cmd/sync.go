package cmd

import (
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	syncPushOnly bool
	syncPullOnly bool
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Push queued changes and pull server state",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *tracker.Tracker) error {
			if !tr.Online() {
				output.Warning("Server unreachable; try again later.")
				return nil
			}

			if syncPullOnly {
				if err := tr.FetchAndCacheServerData(); err != nil {
					output.Error("pull: %v", err)
					return err
				}
				output.Success("Pulled server state.")
				return nil
			}

			summary := tr.SyncPendingOperations()
			if !syncPushOnly {
				if err := tr.FetchAndCacheServerData(); err != nil {
					output.Error("pull: %v", err)
					return err
				}
			}

			if summary.Synced == 0 && summary.Failed == 0 {
				output.Success("Nothing to push; cache is up to date.")
				return nil
			}
			output.Success("Synced %d change(s)", summary.Synced)
			if summary.Failed > 0 {
				output.Warning("%d change(s) failed; they stay queued unless unrecoverable", summary.Failed)
			}
			return nil
		})
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncPushOnly, "push-only", false, "Replay the queue without pulling")
	syncCmd.Flags().BoolVar(&syncPullOnly, "pull-only", false, "Pull server state without replaying")
	syncCmd.MarkFlagsMutuallyExclusive("push-only", "pull-only")
	rootCmd.AddCommand(syncCmd)
}
