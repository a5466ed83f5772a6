package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/hazel/sprout/internal/apiclient"
	"github.com/hazel/sprout/internal/config"
	"github.com/hazel/sprout/internal/kv"
	"github.com/hazel/sprout/internal/output"
	"github.com/hazel/sprout/internal/store"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage sync authentication",
	GroupID: "system",
}

var (
	loginServer string
	loginEmail  string
	loginKey    string
	loginUser   string
)

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the sync server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginServer == "" {
			loginServer = config.GetServerURL()
		}

		if loginEmail == "" || loginKey == "" {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&loginEmail),
				huh.NewInput().Title("API key").EchoMode(huh.EchoModePassword).Value(&loginKey),
			))
			if err := form.Run(); err != nil {
				return err
			}
		}
		if loginEmail == "" || loginKey == "" {
			return fmt.Errorf("email and API key required")
		}

		// Verify the key before saving anything
		client := apiclient.New(loginServer, loginKey)
		if _, err := client.HealthCheck(); err != nil {
			output.Error("server unreachable: %v", err)
			return err
		}

		deviceID, err := config.GetDeviceID()
		if err != nil {
			return fmt.Errorf("get device id: %w", err)
		}

		creds := &config.AuthCredentials{
			APIKey:    loginKey,
			UserID:    loginUser,
			Email:     loginEmail,
			ServerURL: loginServer,
			DeviceID:  deviceID,
		}
		if err := config.SaveAuth(creds); err != nil {
			output.Error("save credentials: %v", err)
			return err
		}

		if creds.UserID != "" {
			if err := withStore(func(s *store.Store) error {
				return s.SetCurrentUser(creds.UserID)
			}); err != nil {
				output.Error("set current user: %v", err)
				return err
			}
		}

		output.Success("Logged in as %s", creds.Email)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and drop per-user sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stale id mappings must not leak into the next account
		if err := withStore(func(s *store.Store) error {
			if err := s.ClearIDMap(); err != nil {
				return err
			}
			return s.ClearCurrentUser()
		}); err != nil {
			output.Error("clear local state: %v", err)
			return err
		}

		if err := config.ClearAuth(); err != nil {
			output.Error("logout: %v", err)
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := config.LoadAuth()
		if err != nil {
			output.Error("load auth: %v", err)
			return err
		}

		if creds == nil || creds.APIKey == "" {
			fmt.Println("Not logged in.")
			return nil
		}

		keyPrefix := creds.APIKey
		if len(keyPrefix) > 12 {
			keyPrefix = keyPrefix[:12] + "..."
		}

		fmt.Printf("Email:  %s\n", creds.Email)
		fmt.Printf("Server: %s\n", creds.ServerURL)
		fmt.Printf("Key:    %s\n", keyPrefix)
		return nil
	},
}

// withStore runs fn against the on-disk store without the API layer.
func withStore(fn func(s *store.Store) error) error {
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	backing, err := kv.Open(filepath.Join(dataDir, "cache.db"))
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer backing.Close()
	return fn(store.New(backing))
}

func init() {
	authLoginCmd.Flags().StringVar(&loginServer, "server", "", "Sync server URL")
	authLoginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	authLoginCmd.Flags().StringVar(&loginKey, "key", "", "API key")
	authLoginCmd.Flags().StringVar(&loginUser, "user", "", "User id for the local cache namespace")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
