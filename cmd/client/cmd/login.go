// cmd/client/cmd/login.go
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var logoutEverywhere bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Create a sync session",
	Long: `Exchanges an upstream API credential for a photobridge session and
stores the session token locally, sealed under a passphrase.

The credential itself never stays on this machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.HasSession() {
			fmt.Println("Already logged in. Run \"photobridge logout\" first to switch accounts.")
			return nil
		}

		fmt.Print("Upstream credential: ")
		credential, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read credential: %w", err)
		}
		fmt.Println()
		if len(credential) == 0 {
			return fmt.Errorf("credential must not be empty")
		}

		fmt.Print("Choose a passphrase to protect the session token: ")
		passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		fmt.Println()

		fmt.Print("Repeat passphrase: ")
		confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		fmt.Println()

		if string(passphrase) != string(confirm) {
			return fmt.Errorf("passphrases do not match")
		}
		if len(passphrase) < 8 {
			return fmt.Errorf("passphrase must be at least 8 characters")
		}

		if err := app.Login(cmd.Context(), string(credential), string(passphrase)); err != nil {
			return err
		}

		color.Green("Logged in. Run \"photobridge sync\" to start syncing.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the sync session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.HasSession() {
			fmt.Println("Not logged in.")
			return nil
		}

		if err := unlockSession(); err != nil {
			return err
		}

		if err := app.Logout(cmd.Context(), logoutEverywhere); err != nil {
			return err
		}

		if logoutEverywhere {
			color.Green("Logged out on every device.")
		} else {
			color.Green("Logged out.")
		}
		return nil
	},
}

// unlockSession prompts for the passphrase and loads the token.
func unlockSession() error {
	fmt.Print("Passphrase: ")
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("read passphrase: %w", err)
	}
	fmt.Println()

	return app.Unlock(string(passphrase))
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutEverywhere, "everywhere", false, "delete all sessions of the account")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
