// ABOUTME: CLI commands for session lifecycle: login, logout, register.
// ABOUTME: Exchanges credentials for a bearer token and persists the session.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in to the board",
	Long:  "Exchange your email and password for a session token. The token is stored for this device until logout.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget this device's session",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create a new board account",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

var loginRemember bool

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)

	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "Remember this email for future logins")
}

func runLogin(cmd *cobra.Command, args []string) error {
	var email string
	if len(args) == 1 {
		email = args[0]
	} else if remembered := globalSession.Email(); remembered != "" {
		email = remembered
		fmt.Printf("Logging in as %s\n", email)
	} else {
		var err error
		email, err = promptLine(os.Stdin, os.Stdout, "Email: ")
		if err != nil {
			return err
		}
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password, err := promptPassword(os.Stdout, "Password: ")
	if err != nil {
		return err
	}

	token, err := globalClient.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	remembered := email
	if !loginRemember && globalSession.Email() != email {
		remembered = ""
	}
	globalSession.Login(token, remembered)

	fmt.Printf("Logged in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if !globalSession.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	globalSession.Logout()
	fmt.Println("Logged out.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	email := args[0]

	password, err := promptPassword(os.Stdout, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(os.Stdout, "Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	profile, err := globalClient.Register(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("Account created for %s - run 'strontium login %s' to sign in\n", profile.Email, profile.Email)
	return nil
}
