package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazel/sprout/internal/apiclient"
	"github.com/hazel/sprout/internal/config"
	"github.com/hazel/sprout/internal/connectivity"
	"github.com/hazel/sprout/internal/kv"
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/store"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/hazel/sprout/internal/tui/monitor"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard showing cache and sync state",
	Long: `Launch a live-updating dashboard showing:
- Cached tasks and progress
- Connection state and pending changes
- Sync activity when the connection returns

Key bindings:
  s      Sync now
  r      Probe the server
  ?      Toggle help
  q      Quit`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := config.DataDir()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		backing, err := kv.Open(filepath.Join(dataDir, "cache.db"))
		if err != nil {
			output.Error("open cache: %v", err)
			return err
		}
		defer backing.Close()

		api := apiclient.New(config.GetServerURL(), config.GetAPIKey())

		// The monitor owns the reconnect edge: each offline-to-online
		// transition pushes one signal for the TUI to act on.
		reconnects := make(chan struct{}, 1)
		conn := connectivity.NewMonitor(func() {
			select {
			case reconnects <- struct{}{}:
			default:
			}
		})
		tr := tracker.New(store.New(backing), api, conn)

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval < 500*time.Millisecond {
			interval = 2 * time.Second
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go conn.Run(ctx, func() bool {
			_, err := api.HealthCheck()
			return err == nil
		}, interval)

		model := monitor.NewModel(tr, reconnects, interval)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running monitor: %w", err)
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().Duration("interval", 2*time.Second, "Probe and refresh interval")
	rootCmd.AddCommand(monitorCmd)
}
