// ABOUTME: Root Cobra command and global wiring for the strontium CLI.
// ABOUTME: Loads config and builds the session store and board API client.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strontium/internal/api"
	"strontium/internal/config"
	"strontium/internal/session"
)

var globalConfig *config.Config
var globalSession *session.Store
var globalClient *api.Client

var rootCmd = &cobra.Command{
	Use:   "strontium",
	Short: "Terminal client for the Strontium message board",
	Long: `
███████╗████████╗██████╗  ██████╗ ███╗   ██╗████████╗██╗██╗   ██╗███╗   ███╗
██╔════╝╚══██╔══╝██╔══██╗██╔═══██╗████╗  ██║╚══██╔══╝██║██║   ██║████╗ ████║
███████╗   ██║   ██████╔╝██║   ██║██╔██╗ ██║   ██║   ██║██║   ██║██╔████╔██║
╚════██║   ██║   ██╔══██╗██║   ██║██║╚██╗██║   ██║   ██║██║   ██║██║╚██╔╝██║
███████║   ██║   ██║  ██║╚██████╔╝██║ ╚████║   ██║   ██║╚██████╔╝██║ ╚═╝ ██║
╚══════╝   ╚═╝   ╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═══╝   ╚═╝   ╚═╝ ╚═════╝ ╚═╝     ╚═╝

Browse, search, and post to a Strontium board from the terminal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if serverFlag != "" {
			cfg.Server.URL = serverFlag
		}
		globalConfig = cfg

		globalSession = session.NewFromCredential(session.Credential{
			Token:  cfg.Session.Token,
			Email:  cfg.Session.Email,
			APIKey: cfg.Session.APIKey,
		})
		// Write every credential transition back through to disk so the
		// session survives process restarts on this device.
		globalSession.OnChange(func(cred session.Credential) {
			cfg.Session.Token = cred.Token
			cfg.Session.Email = cred.Email
			cfg.Session.APIKey = cred.APIKey
			if err := cfg.Save(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to save session: %v\n", err)
			}
		})

		globalClient = api.NewClient(cfg.ServerURL(), globalSession)

		return nil
	},
}

var serverFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Board API URL (overrides config)")
}
