package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeDays int

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Hard-delete finished tasks older than a cutoff",
	Long:  "Removes success and failed rows older than --days; pending, processing, and deleted rows are kept",
	RunE: func(cmd *cobra.Command, args []string) error {
		if purgeDays <= 0 {
			return fmt.Errorf("--days must be positive")
		}

		a := newApp()
		purged, err := a.service.Purge(cmd.Context(), purgeDays)
		if err != nil {
			return err
		}
		fmt.Printf("%d tasks purged\n", purged)
		return nil
	},
}

func init() {
	purgeCmd.Flags().IntVar(&purgeDays, "days", 30, "age threshold in days")
	rootCmd.AddCommand(purgeCmd)
}
