// Package stats holds the numeric primitives shared by the analyzers:
// central moments, order statistics and equal-width histograms over plain
// float64 samples.
package stats

import (
	"math"
	"sort"
)

// DefaultBucketCount is the histogram bucket count used when the caller
// does not choose one.
const DefaultBucketCount = 10

// Bucket is one histogram bin. Bounds are [Start, End); the final bucket of
// a histogram includes its upper bound.
type Bucket struct {
	Start float64 `json:"range_start"`
	End   float64 `json:"range_end"`
	Count int     `json:"count"`
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev is the population (not sample) standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// Quantile computes quantile q over values using linear interpolation
// between order statistics: index = q*(n-1), interpolated between the
// neighboring sorted elements. values need not be sorted.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := sortedCopy(values)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Median is the middle element of the sorted sequence, averaging the two
// middle elements for even counts.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Histogram buckets values into bucketCount equal-width bins spanning
// [min, max]. Upper bounds are exclusive except for the final bucket. When
// all values are equal a single bucket holds everything. Bucket counts
// always sum to len(values).
func Histogram(values []float64, bucketCount int) []Bucket {
	if len(values) == 0 {
		return nil
	}
	if bucketCount <= 0 {
		bucketCount = DefaultBucketCount
	}

	min, max := Min(values), Max(values)
	if min == max {
		return []Bucket{{Start: min, End: max, Count: len(values)}}
	}

	width := (max - min) / float64(bucketCount)
	buckets := make([]Bucket, bucketCount)
	for i := range buckets {
		buckets[i].Start = min + float64(i)*width
		buckets[i].End = min + float64(i+1)*width
	}
	buckets[bucketCount-1].End = max

	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bucketCount {
			idx = bucketCount - 1
		}
		buckets[idx].Count++
	}

	return buckets
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
