package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteReason string

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Soft-delete tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, len(args))
		for i, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", arg)
			}
			ids[i] = id
		}

		a := newApp()

		if len(ids) == 1 {
			ok, err := a.service.Delete(cmd.Context(), ids[0], deleteReason)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("task %d not found", ids[0])
			}
			fmt.Printf("task %d deleted\n", ids[0])
			return nil
		}

		deleted, err := a.service.DeleteBatch(cmd.Context(), ids, deleteReason)
		if err != nil {
			return err
		}
		fmt.Printf("%d of %d tasks deleted\n", deleted, len(ids))
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteReason, "reason", "deleted by operator", "reason recorded in the task log")
	rootCmd.AddCommand(deleteCmd)
}
