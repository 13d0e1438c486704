package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"delta-inspect/analyze"
	"delta-inspect/deltalog"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <table-root>",
	Short: "Show version, schema, statistics and metadata of a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx, args[0])
	if err != nil {
		return err
	}

	snapshot, err := deltalog.Reconstruct(ctx, store, deltalog.Options{
		Version:           requestedVersion(),
		DecodeConcurrency: cfg.Analysis.DecodeConcurrency,
	})
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", args[0], err)
	}

	summary := analyze.Summary(snapshot)

	// Layout columns are recorded as operation parameters, zOrderBy on
	// OPTIMIZE and clusterBy on CREATE TABLE or OPTIMIZE, so they come
	// from the history, not the snapshot.
	if history, err := deltalog.ListVersions(ctx, store); err == nil {
		summary.ZOrderColumns = layoutColumns(history, "zOrderBy", "OPTIMIZE")
		summary.ClusteredColumns = layoutColumns(history, "clusterBy", "OPTIMIZE", "CREATE TABLE")
	} else {
		log.Debug("skipping history scan", "err", err)
	}

	if jsonOutput {
		return renderJSON(summary)
	}

	renderSummary(summary)
	return nil
}

func renderSummary(summary *analyze.TableSummary) {
	renderTable("Metadata", []string{"Property", "Value"}, [][]string{
		{"Table ID", summary.TableID},
		{"Version", humanize.Comma(summary.Version)},
		{"Created", formatTime(summary.TableCreatedTime)},
		{"Last Commit", formatTime(summary.LastCommitTimestamp)},
		{"Partition Columns", fmt.Sprint(summary.PartitionColumns)},
		{"Z-Order Columns", fmt.Sprint(summary.ZOrderColumns)},
		{"Clustered Columns", fmt.Sprint(summary.ClusteredColumns)},
		{"Protocol", formatProtocol(summary.Protocol)},
	})

	renderTable("Table Statistics", []string{"Metric", "Value"}, [][]string{
		{"Files", humanize.Comma(int64(summary.NumFiles))},
		{"Records", humanize.Comma(summary.NumRecords)},
		{"Partitions", humanize.Comma(int64(summary.NumPartitions))},
		{"Total Size", humanize.IBytes(uint64(summary.TotalSizeBytes))},
	})

	schemaRows := make([][]string, 0, len(summary.Schema))
	for _, field := range summary.Schema {
		nullable := "no"
		if field.Nullable {
			nullable = "yes"
		}
		schemaRows = append(schemaRows, []string{field.Name, field.Type, nullable})
	}
	renderTable("Schema", []string{"Column", "Type", "Nullable"}, schemaRows)

	columns := make([]string, 0, len(summary.ColumnStats))
	for column := range summary.ColumnStats {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	statRows := make([][]string, 0, len(columns))
	for _, column := range columns {
		cs := summary.ColumnStats[column]
		statRows = append(statRows, []string{
			column,
			fmt.Sprint(cs.Min),
			fmt.Sprint(cs.Max),
			humanize.Comma(cs.NullCount),
		})
	}
	renderTable("Column Statistics", []string{"Column", "Min", "Max", "Null Count"}, statRows)
}

// layoutColumns decodes a JSON column list recorded as an operation
// parameter, e.g. `["ts","region"]`.
func layoutColumns(history []deltalog.VersionInfo, key string, operations ...string) []string {
	raw, ok := deltalog.OperationParameter(history, key, operations...)
	if !ok {
		return nil
	}
	var columns []string
	if err := jsoniter.ConfigFastest.UnmarshalFromString(raw, &columns); err != nil {
		return nil
	}
	return columns
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "n/a"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatProtocol(p *deltalog.Protocol) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("reader=%d writer=%d", p.MinReaderVersion, p.MinWriterVersion)
}
