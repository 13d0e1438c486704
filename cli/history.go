package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"delta-inspect/deltalog"
)

var historyCmd = &cobra.Command{
	Use:   "history <table-root>",
	Short: "List commit versions with timestamps and operations",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx, args[0])
	if err != nil {
		return err
	}

	history, err := deltalog.ListVersions(ctx, store)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", args[0], err)
	}

	if jsonOutput {
		return renderJSON(history)
	}

	rows := make([][]string, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		info := history[i]
		operation := info.Operation
		if operation == "" {
			operation = "n/a"
		}
		rows = append(rows, []string{
			humanize.Comma(info.Version),
			formatTime(info.Timestamp),
			operation,
		})
	}
	renderTable("History", []string{"Version", "Timestamp", "Operation"}, rows)

	return nil
}
