package analyze

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delta-inspect/deltalog"
)

// rangeSnapshot builds a snapshot with one column "x" whose per-file
// [min, max] ranges are given.
func rangeSnapshot(ranges ...[2]float64) *deltalog.TableSnapshot {
	snapshot := &deltalog.TableSnapshot{}
	for i, r := range ranges {
		snapshot.Files = append(snapshot.Files, deltalog.FileEntry{
			Path:      fmt.Sprintf("part-%03d.parquet", i),
			MinValues: map[string]any{"x": r[0]},
			MaxValues: map[string]any{"x": r[1]},
		})
	}
	return snapshot
}

func TestClustering(t *testing.T) {
	t.Run("boundary-inclusive overlap", func(t *testing.T) {
		report, err := Clustering(rangeSnapshot([2]float64{1, 5}, [2]float64{5, 10}), []string{"x"}, ClusteringOptions{})
		require.NoError(t, err)

		// [1,5] and [5,10] share the boundary point, so both have depth 2.
		assert.Equal(t, 2, report.TotalFiles)
		assert.Equal(t, 2.0, report.AverageDepth)
		assert.Equal(t, 1.0, report.AverageOverlaps)
	})

	t.Run("disjoint ranges do not overlap", func(t *testing.T) {
		report, err := Clustering(rangeSnapshot([2]float64{1, 4}, [2]float64{5, 10}), []string{"x"}, ClusteringOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1.0, report.AverageDepth)
		assert.Equal(t, 0.0, report.AverageOverlaps)
	})

	t.Run("depths of the three-file scenario", func(t *testing.T) {
		report, err := Clustering(
			rangeSnapshot([2]float64{0, 10}, [2]float64{5, 15}, [2]float64{20, 30}),
			[]string{"x"}, ClusteringOptions{})
		require.NoError(t, err)

		// Files 1 and 2 overlap each other, file 3 stands alone: depths 2, 2, 1.
		assert.Equal(t, 3, report.TotalFiles)
		assert.InDelta(t, 5.0/3.0, report.AverageDepth, 1e-12)
		assert.InDelta(t, 2.0/3.0, report.AverageOverlaps, 1e-12)
	})

	t.Run("average depth is at least one for non-empty input", func(t *testing.T) {
		report, err := Clustering(rangeSnapshot([2]float64{1, 1}), []string{"x"}, ClusteringOptions{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, report.AverageDepth, 1.0)
	})

	t.Run("counts constant files", func(t *testing.T) {
		report, err := Clustering(
			rangeSnapshot([2]float64{3, 3}, [2]float64{1, 5}),
			[]string{"x"}, ClusteringOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.ConstantFiles)
	})

	t.Run("multi-column boxes must intersect on every column", func(t *testing.T) {
		snapshot := &deltalog.TableSnapshot{Files: []deltalog.FileEntry{
			{
				Path:      "a.parquet",
				MinValues: map[string]any{"x": 0.0, "y": 0.0},
				MaxValues: map[string]any{"x": 10.0, "y": 10.0},
			},
			{
				// Overlaps on x but not on y.
				Path:      "b.parquet",
				MinValues: map[string]any{"x": 5.0, "y": 20.0},
				MaxValues: map[string]any{"x": 15.0, "y": 30.0},
			},
		}}

		report, err := Clustering(snapshot, []string{"x", "y"}, ClusteringOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1.0, report.AverageDepth)
		assert.Equal(t, 0.0, report.AverageOverlaps)
	})

	t.Run("string columns use lexicographic order", func(t *testing.T) {
		snapshot := &deltalog.TableSnapshot{Files: []deltalog.FileEntry{
			{
				Path:      "a.parquet",
				MinValues: map[string]any{"name": "alice"},
				MaxValues: map[string]any{"name": "carol"},
			},
			{
				Path:      "b.parquet",
				MinValues: map[string]any{"name": "bob"},
				MaxValues: map[string]any{"name": "dave"},
			},
			{
				Path:      "c.parquet",
				MinValues: map[string]any{"name": "erin"},
				MaxValues: map[string]any{"name": "frank"},
			},
		}}

		report, err := Clustering(snapshot, []string{"name"}, ClusteringOptions{})
		require.NoError(t, err)
		// a and b overlap (bob ≤ carol), c stands alone.
		assert.InDelta(t, 5.0/3.0, report.AverageDepth, 1e-12)
	})

	t.Run("temporal strings compare chronologically", func(t *testing.T) {
		snapshot := &deltalog.TableSnapshot{Files: []deltalog.FileEntry{
			{
				Path:      "a.parquet",
				MinValues: map[string]any{"ts": "2023-01-01"},
				MaxValues: map[string]any{"ts": "2023-01-10"},
			},
			{
				Path:      "b.parquet",
				MinValues: map[string]any{"ts": "2023-01-05"},
				MaxValues: map[string]any{"ts": "2023-01-20"},
			},
			{
				Path:      "c.parquet",
				MinValues: map[string]any{"ts": "2023-02-01"},
				MaxValues: map[string]any{"ts": "2023-02-28"},
			},
		}}

		report, err := Clustering(snapshot, []string{"ts"}, ClusteringOptions{})
		require.NoError(t, err)
		assert.InDelta(t, 5.0/3.0, report.AverageDepth, 1e-12)
	})

	t.Run("partition columns take bounds from partition values", func(t *testing.T) {
		snapshot := &deltalog.TableSnapshot{
			PartitionColumns: []string{"region"},
			Files: []deltalog.FileEntry{
				{Path: "a.parquet", PartitionValues: map[string]string{"region": "eu"}},
				{Path: "b.parquet", PartitionValues: map[string]string{"region": "eu"}},
				{Path: "c.parquet", PartitionValues: map[string]string{"region": "us"}},
			},
		}

		report, err := Clustering(snapshot, []string{"region"}, ClusteringOptions{})
		require.NoError(t, err)

		// Partition files are single points, so every file is constant and
		// the two eu files stack on each other.
		assert.Equal(t, 3, report.ConstantFiles)
		assert.InDelta(t, 5.0/3.0, report.AverageDepth, 1e-12)
	})

	t.Run("strict mode fails on missing statistics", func(t *testing.T) {
		snapshot := &deltalog.TableSnapshot{Files: []deltalog.FileEntry{
			{Path: "a.parquet", MinValues: map[string]any{"x": 1.0}, MaxValues: map[string]any{"x": 2.0}},
			{Path: "b.parquet"},
		}}

		_, err := Clustering(snapshot, []string{"x"}, ClusteringOptions{})
		var missing *MissingStatisticsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "x", missing.Column)
		assert.Equal(t, "b.parquet", missing.Path)
	})

	t.Run("lenient mode excludes and counts", func(t *testing.T) {
		snapshot := &deltalog.TableSnapshot{Files: []deltalog.FileEntry{
			{Path: "a.parquet", MinValues: map[string]any{"x": 1.0}, MaxValues: map[string]any{"x": 2.0}},
			{Path: "b.parquet"},
			{Path: "c.parquet", MinValues: map[string]any{"x": 8.0}, MaxValues: map[string]any{"x": 9.0}},
		}}

		report, err := Clustering(snapshot, []string{"x"}, ClusteringOptions{Lenient: true})
		require.NoError(t, err)

		assert.Equal(t, 2, report.TotalFiles)
		assert.Equal(t, 1, report.ExcludedFiles)
		// Averages cover the considered files only.
		assert.Equal(t, 1.0, report.AverageDepth)
	})

	t.Run("histogram covers every considered file", func(t *testing.T) {
		report, err := Clustering(
			rangeSnapshot([2]float64{0, 10}, [2]float64{5, 15}, [2]float64{20, 30}, [2]float64{12, 14}),
			[]string{"x"}, ClusteringOptions{BucketCount: 2})
		require.NoError(t, err)

		total := 0
		for _, bucket := range report.DepthHistogram {
			total += bucket.Count
		}
		assert.Equal(t, report.TotalFiles, total)
	})

	t.Run("empty snapshot fails", func(t *testing.T) {
		_, err := Clustering(&deltalog.TableSnapshot{}, []string{"x"}, ClusteringOptions{})
		var empty *EmptyFileSetError
		require.ErrorAs(t, err, &empty)
	})

	t.Run("no columns fails", func(t *testing.T) {
		_, err := Clustering(rangeSnapshot([2]float64{1, 2}), nil, ClusteringOptions{})
		require.Error(t, err)
	})

	t.Run("constant files at epoch-millisecond magnitude overlap", func(t *testing.T) {
		// Two files pinned to the same instant, at the coordinate scale
		// temporal encoding produces. Each must still count the other.
		report, err := Clustering(
			rangeSnapshot([2]float64{1.7e12, 1.7e12}, [2]float64{1.7e12, 1.7e12}),
			[]string{"x"}, ClusteringOptions{})
		require.NoError(t, err)

		assert.Equal(t, 2.0, report.AverageDepth)
		assert.GreaterOrEqual(t, report.AverageDepth, 1.0)
	})

	t.Run("boundary touch at epoch-millisecond magnitude overlaps", func(t *testing.T) {
		boundary := 1.7e12 + 0.001
		report, err := Clustering(
			rangeSnapshot([2]float64{1.7e12, boundary}, [2]float64{boundary, 1.7e12 + 0.002}),
			[]string{"x"}, ClusteringOptions{})
		require.NoError(t, err)

		assert.Equal(t, 2.0, report.AverageDepth)
		assert.Equal(t, 1.0, report.AverageOverlaps)
	})

	t.Run("many files stay exact", func(t *testing.T) {
		// 100 disjoint unit ranges plus one range covering everything.
		ranges := make([][2]float64, 0, 101)
		for i := 0; i < 100; i++ {
			ranges = append(ranges, [2]float64{float64(3 * i), float64(3*i + 1)})
		}
		ranges = append(ranges, [2]float64{0, 300})

		report, err := Clustering(rangeSnapshot(ranges...), []string{"x"}, ClusteringOptions{})
		require.NoError(t, err)

		// Every unit range overlaps only the big one: depth 2 each; the big
		// one overlaps all 100: depth 101.
		want := (100*2 + 101) / 101.0
		assert.InDelta(t, want, report.AverageDepth, 1e-9)
	})
}
