package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var failLog string

var failCmd = &cobra.Command{
	Use:   "fail <id>",
	Short: "Mark a task as failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}
		if failLog == "" {
			return fmt.Errorf("--log is required")
		}

		a := newApp()
		ok, err := a.service.Fail(cmd.Context(), id, failLog)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("task %d not found", id)
		}
		fmt.Printf("task %d marked failed\n", id)
		return nil
	},
}

func init() {
	failCmd.Flags().StringVar(&failLog, "log", "", "error detail for the task log")
	rootCmd.AddCommand(failCmd)
}
