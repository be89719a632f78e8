package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a soft-deleted task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		a := newApp()
		ok, err := a.service.Restore(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("task %d does not exist or is not deleted", id)
		}
		fmt.Printf("task %d restored\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
