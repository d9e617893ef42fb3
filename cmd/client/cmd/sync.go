// cmd/client/cmd/sync.go
package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	syncTypes []string
	syncFull  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the local mirror",
	Long: `Pulls changes from the server and applies them to the local mirror.

Only changes since the last sync are transferred; progress is
acknowledged as it goes, so an interrupted sync resumes where it
stopped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.HasSession() {
			return fmt.Errorf("not logged in. Run: photobridge login")
		}
		if err := unlockSession(); err != nil {
			return err
		}

		fmt.Println("Checking server connection...")
		if err := app.CheckConnection(cmd.Context()); err != nil {
			return fmt.Errorf("server unreachable: %w", err)
		}

		fmt.Println("Syncing...")
		start := time.Now()

		result, err := app.Sync(cmd.Context(), syncTypes, syncFull)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		duration := time.Since(start)

		color.Green("Sync complete.")
		if result.WasReset {
			color.Yellow("The server requested a full resync; the mirror was rebuilt.")
		}
		fmt.Printf("Applied records: %d\n", result.Applied)
		fmt.Printf("Duration: %v\n", duration.Round(time.Millisecond))

		counts, err := app.MirrorCounts()
		if err != nil {
			return nil
		}
		fmt.Println()
		fmt.Println("Local mirror:")
		tables := make([]string, 0, len(counts))
		for table := range counts {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			fmt.Printf("  %-13s %d\n", table, counts[table])
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringSliceVar(&syncTypes, "types", nil, "sync request types (default: all)")
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "discard the local mirror and server checkpoints, resync everything")
	rootCmd.AddCommand(syncCmd)
}
