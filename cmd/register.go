package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	model "harvestq.com/harvestq/internal/models"
)

var (
	registerTitle    string
	registerDuration int
	registerFile     string
)

var registerCmd = &cobra.Command{
	Use:   "register [url]",
	Short: "Register download tasks",
	Long:  "Registers a single task by URL, or a batch from a file with one URL per line",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		ctx := cmd.Context()

		if registerFile != "" {
			entries, err := readEntries(registerFile)
			if err != nil {
				return err
			}
			ids, err := a.service.RegisterBatch(ctx, entries)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"accepted": len(ids),
				"skipped":  len(entries) - len(ids),
				"ids":      ids,
			})
		}

		if len(args) != 1 {
			return fmt.Errorf("either a url argument or --file is required")
		}

		task, created, err := a.service.Register(ctx, model.NewTask{
			URL:      args[0],
			Title:    registerTitle,
			Duration: registerDuration,
		})
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintf(os.Stderr, "url already registered as task %d\n", task.ID)
		}
		return printJSON(task)
	},
}

func readEntries(path string) ([]model.NewTask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []model.NewTask
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		url := strings.TrimSpace(scanner.Text())
		if url == "" || strings.HasPrefix(url, "#") {
			continue
		}
		entries = append(entries, model.NewTask{URL: url})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func init() {
	registerCmd.Flags().StringVar(&registerTitle, "title", "", "task title")
	registerCmd.Flags().IntVar(&registerDuration, "duration", 0, "video duration in seconds")
	registerCmd.Flags().StringVar(&registerFile, "file", "", "file with one URL per line")
	rootCmd.AddCommand(registerCmd)
}
