// ABOUTME: CLI commands for the account API key lifecycle.
// ABOUTME: Shows the stored key and rotates it after an explicit destructive-action warning.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strontium/internal/api"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage your board API key",
	Long:  "Show or rotate the API key external tools use on your behalf.",
}

var apikeyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your current API key",
	RunE:  runAPIKeyShow,
}

var apikeyRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Generate a new API key, replacing the old one",
	Long: `Generate a brand-new API key for your account.

The previous key stops working immediately and cannot be recovered;
anything still using it must be reconfigured.`,
	RunE: runAPIKeyRotate,
}

var apikeyYes bool

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyShowCmd)
	apikeyCmd.AddCommand(apikeyRotateCmd)

	apikeyRotateCmd.Flags().BoolVar(&apikeyYes, "yes", false, "Skip the confirmation prompt")
}

func runAPIKeyShow(cmd *cobra.Command, args []string) error {
	if !globalSession.Authenticated() {
		return fmt.Errorf("not logged in - run 'strontium login <email>' first")
	}

	profile, err := globalClient.Me(cmd.Context())
	if err != nil {
		if errors.Is(err, api.ErrSessionInvalid) {
			return fmt.Errorf("session expired - run 'strontium login' again")
		}
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	if profile.APIKey == "" {
		fmt.Println("No API key registered - run 'strontium apikey rotate' to generate one.")
		return nil
	}

	globalSession.SetAPIKey(profile.APIKey)
	fmt.Printf("API key for %s:\n%s\n", profile.Email, profile.APIKey)
	return nil
}

func runAPIKeyRotate(cmd *cobra.Command, args []string) error {
	if !globalSession.Authenticated() {
		return fmt.Errorf("not logged in - run 'strontium login <email>' first")
	}

	if !apikeyYes {
		fmt.Println("Rotating generates a new key and permanently disables the current one.")
		answer, err := promptLine(os.Stdin, os.Stdout, "Continue? [y/N] ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// Issued exactly once: a rotation that fails is reported, never retried,
	// since a retry could burn a key the caller never saw.
	key, err := globalClient.GenerateAPIKey(cmd.Context())
	if err != nil {
		if errors.Is(err, api.ErrSessionInvalid) {
			return fmt.Errorf("session expired - run 'strontium login' again")
		}
		return fmt.Errorf("failed to generate API key: %w", err)
	}

	globalSession.SetAPIKey(key)
	fmt.Printf("New API key:\n%s\n", key)
	return nil
}
