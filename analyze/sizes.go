package analyze

import (
	"fmt"
	"math"
	"strconv"

	"delta-inspect/deltalog"
	"delta-inspect/stats"
)

// DefaultQuantiles are the quantiles reported when the caller does not
// choose any.
var DefaultQuantiles = []float64{0.05, 0.25, 0.75, 0.95}

// SizeOptions configures the distribution aggregate.
type SizeOptions struct {
	Quantiles   []float64
	BucketCount int
}

// FileSizeStats aggregates the distribution of one per-file metric across
// the active file set. It is a pure function of the snapshot's files and
// holds no reference back to it.
type FileSizeStats struct {
	TotalFiles int   `json:"total_files"`
	TotalBytes int64 `json:"total_size_bytes"`

	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`

	// Quantiles is keyed by the original request, e.g. "q05" for 0.05.
	Quantiles map[string]float64 `json:"quantiles"`
	Histogram []stats.Bucket     `json:"histogram"`
}

// FileSizes computes the size distribution of the active file set. It fails
// with EmptyFileSetError when the snapshot has no active files, since every
// statistic beyond count and total is undefined there.
func FileSizes(snapshot *deltalog.TableSnapshot, opts SizeOptions) (*FileSizeStats, error) {
	values := make([]float64, 0, len(snapshot.Files))
	var total int64
	for _, file := range snapshot.Files {
		values = append(values, float64(file.SizeBytes))
		total += file.SizeBytes
	}
	return distribution(values, total, opts)
}

// RecordCounts computes the same aggregate over per-file record counts as
// recorded in the stats blobs.
func RecordCounts(snapshot *deltalog.TableSnapshot, opts SizeOptions) (*FileSizeStats, error) {
	values := make([]float64, 0, len(snapshot.Files))
	var total int64
	for _, file := range snapshot.Files {
		values = append(values, float64(file.NumRecords))
		total += file.NumRecords
	}
	return distribution(values, total, opts)
}

func distribution(values []float64, total int64, opts SizeOptions) (*FileSizeStats, error) {
	if len(values) == 0 {
		return nil, &EmptyFileSetError{}
	}

	quantiles := opts.Quantiles
	if len(quantiles) == 0 {
		quantiles = DefaultQuantiles
	}
	named := make(map[string]float64, len(quantiles))
	for _, q := range quantiles {
		named[quantileName(q)] = stats.Quantile(values, q)
	}

	return &FileSizeStats{
		TotalFiles: len(values),
		TotalBytes: total,
		Mean:       stats.Mean(values),
		Median:     stats.Median(values),
		StdDev:     stats.StdDev(values),
		Min:        stats.Min(values),
		Max:        stats.Max(values),
		Quantiles:  named,
		Histogram:  stats.Histogram(values, opts.BucketCount),
	}, nil
}

// quantileName labels a quantile by its percentage: q05, q25, q95. A
// non-integral percentage keeps its fraction (0.125 names q12.5) so
// distinct requests never collide in the result map.
func quantileName(q float64) string {
	pct := q * 100
	if pct == math.Trunc(pct) {
		return fmt.Sprintf("q%02.0f", pct)
	}
	return "q" + strconv.FormatFloat(pct, 'f', -1, 64)
}
