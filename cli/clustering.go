package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"delta-inspect/analyze"
	"delta-inspect/deltalog"
)

var (
	clusteringColumns []string
	clusteringLenient bool
	clusteringBuckets int

	clusteringCmd = &cobra.Command{
		Use:   "clustering <table-root>",
		Short: "Analyze min/max overlap of the active files on selected columns",
		Args:  cobra.ExactArgs(1),
		RunE:  runClustering,
	}
)

func init() {
	clusteringCmd.Flags().StringSliceVarP(&clusteringColumns, "columns", "c", nil, "columns to analyze (repeatable)")
	clusteringCmd.Flags().BoolVar(&clusteringLenient, "lenient", false, "exclude files without statistics instead of failing")
	clusteringCmd.Flags().IntVarP(&clusteringBuckets, "buckets", "b", 0, "histogram bucket count (default 10)")
	_ = clusteringCmd.MarkFlagRequired("columns")
	rootCmd.AddCommand(clusteringCmd)
}

func runClustering(cmd *cobra.Command, args []string) error {
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

	report, err := analyze.Clustering(snapshot, clusteringColumns, analyze.ClusteringOptions{
		Lenient:     clusteringLenient,
		BucketCount: bucketCount(clusteringBuckets),
	})
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", args[0], err)
	}

	if jsonOutput {
		return renderJSON(report)
	}

	renderTable("Clustering Health", []string{"Metric", "Value"}, [][]string{
		{"Columns", fmt.Sprint(report.Columns)},
		{"Files Considered", formatNumberF(float64(report.TotalFiles))},
		{"Constant Files", formatNumberF(float64(report.ConstantFiles))},
		{"Excluded Files", formatNumberF(float64(report.ExcludedFiles))},
		{"Average Depth", formatNumberF(report.AverageDepth)},
		{"Average Overlaps", formatNumberF(report.AverageOverlaps)},
		{"Assessment", assessClustering(report)},
	})
	renderTable("Depth Histogram", []string{"Range", "Files"}, histogramRows(report.DepthHistogram, formatNumberF))

	return nil
}

func assessClustering(report *analyze.ClusteringReport) string {
	switch {
	case report.AverageOverlaps == 0:
		return "perfect: no overlapping files"
	case report.AverageOverlaps < 0.5:
		return "good"
	case report.AverageOverlaps < 2:
		return "moderate"
	default:
		return "poor: ranges overlap heavily"
	}
}
