// cmd/client/cmd/sessions.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage sync sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions of the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.HasSession() {
			return fmt.Errorf("not logged in. Run: photobridge login")
		}
		if err := unlockSession(); err != nil {
			return err
		}

		sessions, err := app.Sessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDEVICE\tLAST ACTIVE\tRESET PENDING\t")
		for _, s := range sessions {
			id := s.ID
			if len(id) > 12 {
				id = id[:12]
			}
			if s.Current {
				id += " *"
			}
			device := s.DeviceType
			if s.DeviceOS != "" {
				device += " (" + s.DeviceOS + ")"
			}
			pending := ""
			if s.PendingSyncReset {
				pending = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
				id, device, s.UpdatedAt.Format("2006-01-02 15:04"), pending)
		}
		return w.Flush()
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.HasSession() {
			return fmt.Errorf("not logged in. Run: photobridge login")
		}
		if err := unlockSession(); err != nil {
			return err
		}

		if err := app.DeleteSession(cmd.Context(), args[0]); err != nil {
			return err
		}
		color.Green("Session deleted.")
		return nil
	},
}

var sessionsResetCmd = &cobra.Command{
	Use:   "reset [id]",
	Short: "Request a full resync for a session",
	Long: `Marks a session so its next sync starts over from scratch. With no
argument the current session is reset.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.HasSession() {
			return fmt.Errorf("not logged in. Run: photobridge login")
		}
		if err := unlockSession(); err != nil {
			return err
		}

		id := "me"
		if len(args) == 1 {
			id = args[0]
		}
		if err := app.RequestReset(cmd.Context(), id); err != nil {
			return err
		}
		color.Green("Reset requested. The next sync will rebuild the mirror.")
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsResetCmd)
	rootCmd.AddCommand(sessionsCmd)
}
