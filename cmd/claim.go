package cmd

import (
	"github.com/spf13/cobra"
)

var claimMax int

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim pending tasks for processing",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()

		tasks, err := a.service.Claim(cmd.Context(), claimMax)
		if err != nil {
			return err
		}
		return printJSON(tasks)
	},
}

func init() {
	claimCmd.Flags().IntVar(&claimMax, "max", 10, "maximum number of tasks to claim")
	rootCmd.AddCommand(claimCmd)
}
