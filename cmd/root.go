package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazel/sprout/internal/apiclient"
	"github.com/hazel/sprout/internal/config"
	"github.com/hazel/sprout/internal/connectivity"
	"github.com/hazel/sprout/internal/kv"
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/store"
	"github.com/hazel/sprout/internal/tracker"
	"github.com/spf13/cobra"
)

// SetVersion sets the version string shown by --version
func SetVersion(v string) {
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "sprout",
	Short: "Offline-first habit and task tracker for kids",
	Long: `sprout - A habit and task tracker that works with or without a network.

Changes apply to the local cache immediately and queue for the sync server;
when the connection returns, queued changes replay in order.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	// Custom usage template that shows aliases inline
	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
	rootCmd.SetUsageTemplate(usageTemplate)

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

// openTracker builds the offline-aware tracker over the on-disk cache.
// Callers must call the returned close func.
func openTracker() (*tracker.Tracker, func(), error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, nil, err
	}

	backing, err := kv.Open(filepath.Join(dataDir, "cache.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}

	api := apiclient.New(config.GetServerURL(), config.GetAPIKey())

	monitor := connectivity.NewMonitor(nil)
	_, healthErr := api.HealthCheck()
	monitor.SetOnline(healthErr == nil)

	tr := tracker.New(store.New(backing), api, monitor)
	return tr, func() { backing.Close() }, nil
}

// withTracker runs fn against an open tracker and closes the cache after.
func withTracker(fn func(tr *tracker.Tracker) error) error {
	tr, closeFn, err := openTracker()
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer closeFn()
	return fn(tr)
}
