package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"delta-inspect/analyze"
	"delta-inspect/deltalog"
)

var (
	sizesMetric  string
	sizesBuckets int

	sizesCmd = &cobra.Command{
		Use:   "sizes <table-root>",
		Short: "Analyze the size distribution of the active files",
		Args:  cobra.ExactArgs(1),
		RunE:  runSizes,
	}
)

func init() {
	sizesCmd.Flags().StringVarP(&sizesMetric, "metric", "m", "size", "metric to analyze: size or records")
	sizesCmd.Flags().IntVarP(&sizesBuckets, "buckets", "b", 0, "histogram bucket count (default 10)")
	rootCmd.AddCommand(sizesCmd)
}

func runSizes(cmd *cobra.Command, args []string) error {
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

	opts := analyze.SizeOptions{
		Quantiles:   cfg.Analysis.Quantiles,
		BucketCount: bucketCount(sizesBuckets),
	}

	var result *analyze.FileSizeStats
	format := formatBytesF
	switch sizesMetric {
	case "size":
		result, err = analyze.FileSizes(snapshot, opts)
	case "records":
		result, err = analyze.RecordCounts(snapshot, opts)
		format = formatNumberF
	default:
		return fmt.Errorf("unknown metric %q, want size or records", sizesMetric)
	}
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", args[0], err)
	}

	if jsonOutput {
		return renderJSON(result)
	}

	renderDistribution(result, format)
	return nil
}

func renderDistribution(result *analyze.FileSizeStats, format func(float64) string) {
	rows := [][]string{
		{"Count", formatNumberF(float64(result.TotalFiles))},
		{"Total", format(float64(result.TotalBytes))},
		{"Mean", format(result.Mean)},
		{"Median", format(result.Median)},
		{"Std Dev", format(result.StdDev)},
		{"Min", format(result.Min)},
		{"Max", format(result.Max)},
	}

	names := make([]string, 0, len(result.Quantiles))
	for name := range result.Quantiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, []string{name, format(result.Quantiles[name])})
	}

	renderTable("Distribution", []string{"Statistic", "Value"}, rows)
	renderTable("Histogram", []string{"Range", "Files"}, histogramRows(result.Histogram, format))
}

func bucketCount(flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.Analysis.HistogramBuckets
}
