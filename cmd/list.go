package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	model "harvestq.com/harvestq/internal/models"
)

var (
	listStatus      string
	listMax         int
	listRecentHours int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks by status, deletion, or recency",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		ctx := cmd.Context()

		if listRecentHours > 0 {
			tasks, err := a.service.ListRecent(ctx, listRecentHours, listMax)
			if err != nil {
				return err
			}
			return printJSON(tasks)
		}

		status, ok := model.ParseStatus(listStatus)
		if !ok {
			return fmt.Errorf("unknown status %q (pending, processing, success, failed, deleted)", listStatus)
		}

		var tasks []model.Task
		var err error
		if status == model.StatusDeleted {
			tasks, err = a.service.ListDeleted(ctx, listMax)
		} else {
			tasks, err = a.service.ListByStatus(ctx, status, listMax)
		}
		if err != nil {
			return err
		}
		return printJSON(tasks)
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "pending", "status to list")
	listCmd.Flags().IntVar(&listMax, "max", 100, "maximum number of tasks")
	listCmd.Flags().IntVar(&listRecentHours, "recent-hours", 0, "list tasks registered within the last N hours instead")
	rootCmd.AddCommand(listCmd)
}
