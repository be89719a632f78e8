package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	completeDownloadType int
	completeLog          string
)

var completeCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a task as successfully downloaded",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		a := newApp()
		ok, err := a.service.Complete(cmd.Context(), id, completeDownloadType, completeLog)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("task %d not found", id)
		}
		fmt.Printf("task %d marked success\n", id)
		return nil
	},
}

func init() {
	completeCmd.Flags().IntVar(&completeDownloadType, "download-type", 0, "download strategy that was used")
	completeCmd.Flags().StringVar(&completeLog, "log", "", "success detail (default \"completed\")")
	rootCmd.AddCommand(completeCmd)
}
