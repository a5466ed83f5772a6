package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	timerTask string
	timerNow  bool
)

var timerCmd = &cobra.Command{
	Use:     "timer [minutes]",
	Short:   "Run a focus timer and record the session",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[0])
		if err != nil || minutes <= 0 {
			return fmt.Errorf("minutes must be a positive number, got %q", args[0])
		}

		return withTracker(func(tr *tracker.Tracker) error {
			taskID := ""
			if timerTask != "" {
				task, err := findTask(tr.CachedTasks(), timerTask)
				if err != nil {
					output.Error("%v", err)
					return err
				}
				taskID = task.ID.String()
			}

			if !timerNow {
				runCountdown(minutes)
			}

			resp, err := tr.CompleteTimer(models.InsertTimerSession{
				DurationMinutes: minutes,
				TaskID:          taskID,
			})
			if err != nil {
				output.Error("record timer: %v", err)
				return err
			}

			output.Success("Timer done: %d minute(s)", minutes)
			if resp != nil {
				output.Info("Timer sessions completed: %d", resp.Progress.TimerSessionsCompleted)
			} else {
				output.Info("Offline; session will sync when back online.")
			}
			return nil
		})
	},
}

// runCountdown blocks for the timer duration, printing remaining minutes.
func runCountdown(minutes int) {
	for remaining := minutes; remaining > 0; remaining-- {
		fmt.Printf("\r%d minute(s) left ", remaining)
		time.Sleep(time.Minute)
	}
	fmt.Print("\r                    \r")
}

func init() {
	timerCmd.Flags().StringVar(&timerTask, "task", "", "Task this session was for")
	timerCmd.Flags().BoolVar(&timerNow, "now", false, "Record the session without waiting")
	rootCmd.AddCommand(timerCmd)
}
