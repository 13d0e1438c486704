package analyze

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dhconnelly/rtreego"

	"delta-inspect/deltalog"
	"delta-inspect/stats"
)

// ClusteringOptions configures the overlap analysis.
type ClusteringOptions struct {
	// Lenient excludes files lacking statistics for a selected column
	// instead of failing.
	Lenient     bool
	BucketCount int
}

// ClusteringReport quantifies how well the active file set is organized for
// range queries on the selected columns. Depth of a file is the number of
// files (itself included) whose bounding boxes intersect its own;
// overlaps is depth minus one.
type ClusteringReport struct {
	Columns []string `json:"columns"`

	TotalFiles    int `json:"total_partition_count"`
	ConstantFiles int `json:"total_constant_partition_count"`
	ExcludedFiles int `json:"excluded_file_count"`

	AverageDepth    float64        `json:"average_depth"`
	AverageOverlaps float64        `json:"average_overlaps"`
	DepthHistogram  []stats.Bucket `json:"partition_depth_histogram"`
}

// fileBounds is one file's axis-aligned bounding box in the space of the
// selected columns, in encoded coordinates.
type fileBounds struct {
	index int
	min   []float64
	max   []float64
	rect  rtreego.Rect
}

func (b *fileBounds) Bounds() rtreego.Rect { return b.rect }

// Clustering analyzes min/max overlap of the active file set on the given
// columns. In strict mode a file lacking statistics for any selected column
// fails the analysis with MissingStatisticsError.
func Clustering(snapshot *deltalog.TableSnapshot, columns []string, opts ClusteringOptions) (*ClusteringReport, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("at least one column is required")
	}
	if len(snapshot.Files) == 0 {
		return nil, &EmptyFileSetError{}
	}

	mins, maxs, excluded, err := collectRanges(snapshot, columns, opts.Lenient)
	if err != nil {
		return nil, err
	}

	report := &ClusteringReport{
		Columns:       columns,
		ExcludedFiles: excluded,
		TotalFiles:    len(mins),
	}
	if len(mins) == 0 {
		return report, nil
	}

	encodedMin, encodedMax, err := encodeRanges(columns, mins, maxs)
	if err != nil {
		return nil, err
	}

	depths := overlapDepths(encodedMin, encodedMax)

	overlaps := make([]float64, len(depths))
	for i, depth := range depths {
		overlaps[i] = depth - 1
		if isConstant(encodedMin[i], encodedMax[i]) {
			report.ConstantFiles++
		}
	}

	report.AverageDepth = stats.Mean(depths)
	report.AverageOverlaps = stats.Mean(overlaps)
	report.DepthHistogram = stats.Histogram(depths, opts.BucketCount)

	return report, nil
}

// collectRanges pulls the raw per-column [min, max] of every active file.
// Partition columns have no stats blob; their value serves as both bounds.
func collectRanges(snapshot *deltalog.TableSnapshot, columns []string, lenient bool) (mins, maxs [][]any, excluded int, err error) {
	partitioned := make(map[string]bool, len(snapshot.PartitionColumns))
	for _, col := range snapshot.PartitionColumns {
		partitioned[col] = true
	}

files:
	for _, file := range snapshot.Files {
		lo := make([]any, len(columns))
		hi := make([]any, len(columns))
		for i, column := range columns {
			if partitioned[column] {
				value, ok := file.PartitionValues[column]
				if !ok {
					if lenient {
						excluded++
						continue files
					}
					return nil, nil, 0, &MissingStatisticsError{Column: column, Path: file.Path}
				}
				lo[i], hi[i] = value, value
				continue
			}

			min, okMin := file.MinValues[column]
			max, okMax := file.MaxValues[column]
			if !okMin || !okMax || min == nil || max == nil {
				if lenient {
					excluded++
					continue files
				}
				return nil, nil, 0, &MissingStatisticsError{Column: column, Path: file.Path}
			}
			lo[i], hi[i] = min, max
		}
		mins = append(mins, lo)
		maxs = append(maxs, hi)
	}

	return mins, maxs, excluded, nil
}

// encodeRanges maps the raw bounds of every column onto a numeric axis so
// the spatial index can work on them: numbers pass through, temporal
// strings become epoch milliseconds, other strings get a dictionary rank.
func encodeRanges(columns []string, mins, maxs [][]any) (encodedMin, encodedMax [][]float64, err error) {
	encodedMin = make([][]float64, len(mins))
	encodedMax = make([][]float64, len(maxs))
	for i := range mins {
		encodedMin[i] = make([]float64, len(columns))
		encodedMax[i] = make([]float64, len(columns))
	}

	for dim, column := range columns {
		values := make([]any, 0, 2*len(mins))
		for i := range mins {
			values = append(values, mins[i][dim], maxs[i][dim])
		}

		encoded, err := encodeAxis(values)
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", column, err)
		}
		for i := range mins {
			encodedMin[i][dim] = encoded[2*i]
			encodedMax[i][dim] = encoded[2*i+1]
		}
	}

	return encodedMin, encodedMax, nil
}

var temporalLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func encodeAxis(values []any) ([]float64, error) {
	encoded := make([]float64, len(values))

	numeric := true
	for _, v := range values {
		if _, ok := v.(float64); !ok {
			numeric = false
			break
		}
	}
	if numeric {
		for i, v := range values {
			encoded[i] = v.(float64)
		}
		return encoded, nil
	}

	booleans := true
	for _, v := range values {
		if _, ok := v.(bool); !ok {
			booleans = false
			break
		}
	}
	if booleans {
		for i, v := range values {
			if v.(bool) {
				encoded[i] = 1
			}
		}
		return encoded, nil
	}

	texts := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unsupported statistics value %v (%T)", v, v)
		}
		texts[i] = s
	}

	if ok := encodeTemporal(texts, encoded); ok {
		return encoded, nil
	}
	if ok := encodeNumericStrings(texts, encoded); ok {
		return encoded, nil
	}
	encodeDictionary(texts, encoded)
	return encoded, nil
}

func encodeTemporal(texts []string, encoded []float64) bool {
	for _, layout := range temporalLayouts {
		ok := true
		for i, text := range texts {
			t, err := time.Parse(layout, text)
			if err != nil {
				ok = false
				break
			}
			encoded[i] = float64(t.UnixMilli())
		}
		if ok {
			return true
		}
	}
	return false
}

func encodeNumericStrings(texts []string, encoded []float64) bool {
	for i, text := range texts {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return false
		}
		encoded[i] = f
	}
	return true
}

// encodeDictionary assigns every distinct string its rank in sorted order,
// preserving the column's lexicographic ordering on the numeric axis.
func encodeDictionary(texts []string, encoded []float64) {
	distinct := make(map[string]struct{}, len(texts))
	for _, text := range texts {
		distinct[text] = struct{}{}
	}
	sorted := make([]string, 0, len(distinct))
	for text := range distinct {
		sorted = append(sorted, text)
	}
	sort.Strings(sorted)

	ranks := make(map[string]float64, len(sorted))
	for rank, text := range sorted {
		ranks[text] = float64(rank)
	}
	for i, text := range texts {
		encoded[i] = ranks[text]
	}
}

// overlapDepths computes, for every box, how many boxes intersect it
// (itself included) under the boundary-inclusive predicate. The R-tree
// prunes candidates; degenerate boxes are padded by a small epsilon before
// indexing, so every candidate set is a superset of the true matches and
// the exact predicate decides membership. Indexed coordinates are shifted
// to each axis's global minimum first: at raw magnitudes like epoch
// milliseconds the pad would fall below one ULP and round away, collapsing
// the rect back to a zero extent the index never matches.
func overlapDepths(mins, maxs [][]float64) []float64 {
	dims := len(mins[0])
	// The index wants at least two dimensions; single-column analyses get a
	// constant extra axis.
	indexDims := dims
	if indexDims < 2 {
		indexDims = 2
	}

	origin := make([]float64, dims)
	pad := make([]float64, dims)
	for d := 0; d < dims; d++ {
		lo, hi := mins[0][d], maxs[0][d]
		for i := range mins {
			if mins[i][d] < lo {
				lo = mins[i][d]
			}
			if maxs[i][d] > hi {
				hi = maxs[i][d]
			}
		}
		origin[d] = lo
		pad[d] = (hi - lo) * 1e-9
		if pad[d] == 0 {
			pad[d] = 1e-9
		}
	}

	boxes := make([]*fileBounds, len(mins))
	tree := rtreego.NewTree(indexDims, 25, 50)
	for i := range mins {
		point := make(rtreego.Point, indexDims)
		lengths := make([]float64, indexDims)
		for d := 0; d < dims; d++ {
			point[d] = mins[i][d] - origin[d]
			lengths[d] = maxs[i][d] - mins[i][d] + pad[d]
		}
		for d := dims; d < indexDims; d++ {
			lengths[d] = 1
		}

		rect, _ := rtreego.NewRect(point, lengths)
		boxes[i] = &fileBounds{index: i, min: mins[i], max: maxs[i], rect: rect}
		tree.Insert(boxes[i])
	}

	depths := make([]float64, len(boxes))
	for i, box := range boxes {
		for _, candidate := range tree.SearchIntersect(box.rect) {
			other := candidate.(*fileBounds)
			if intersects(box, other) {
				depths[i]++
			}
		}
	}
	return depths
}

// intersects is the exact boundary-inclusive test: two boxes overlap iff
// their projections intersect on every dimension.
func intersects(a, b *fileBounds) bool {
	for d := range a.min {
		if a.min[d] > b.max[d] || b.min[d] > a.max[d] {
			return false
		}
	}
	return true
}

func isConstant(min, max []float64) bool {
	for d := range min {
		if min[d] != max[d] {
			return false
		}
	}
	return true
}
