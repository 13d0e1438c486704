package analyze

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"delta-inspect/deltalog"
)

// ColumnStatistics aggregates one column across the active file set:
// overall minimum, overall maximum and the summed null count.
type ColumnStatistics struct {
	Min       any   `json:"min"`
	Max       any   `json:"max"`
	NullCount int64 `json:"null_count"`
}

// TableSummary is the headline view of a snapshot.
type TableSummary struct {
	Version          int64                  `json:"version"`
	TableID          string                 `json:"table_id"`
	Schema           []deltalog.SchemaField `json:"schema"`
	PartitionColumns []string               `json:"partition_columns,omitempty"`
	Protocol         *deltalog.Protocol     `json:"protocol,omitempty"`

	NumFiles       int   `json:"num_files"`
	NumRecords     int64 `json:"num_records"`
	NumPartitions  int   `json:"num_partitions"`
	TotalSizeBytes int64 `json:"total_size_bytes"`

	TableCreatedTime    *time.Time `json:"created_time,omitempty"`
	LastCommitTimestamp *time.Time `json:"last_commit_timestamp,omitempty"`

	ColumnStats map[string]ColumnStatistics `json:"column_statistics,omitempty"`

	// Filled from commit history by the caller when available.
	ZOrderColumns    []string `json:"zorder_columns,omitempty"`
	ClusteredColumns []string `json:"clustered_columns,omitempty"`
}

// Summary derives the table summary from a snapshot.
func Summary(snapshot *deltalog.TableSnapshot) *TableSummary {
	summary := &TableSummary{
		Version:             snapshot.Version,
		TableID:             snapshot.TableID,
		Schema:              snapshot.Schema,
		PartitionColumns:    snapshot.PartitionColumns,
		Protocol:            snapshot.Protocol,
		NumFiles:            len(snapshot.Files),
		TableCreatedTime:    snapshot.TableCreatedTime,
		LastCommitTimestamp: snapshot.LastCommitTimestamp,
		ColumnStats:         ColumnStats(snapshot),
	}

	partitions := make(map[string]struct{})
	for _, file := range snapshot.Files {
		summary.NumRecords += file.NumRecords
		summary.TotalSizeBytes += file.SizeBytes
		if len(file.PartitionValues) > 0 {
			partitions[partitionKey(file.PartitionValues)] = struct{}{}
		}
	}
	summary.NumPartitions = len(partitions)

	return summary
}

// ColumnStats folds per-file statistics into per-column aggregates.
// Partition columns carry no stats blobs, so their min/max come from the
// partition values and their null count is zero.
func ColumnStats(snapshot *deltalog.TableSnapshot) map[string]ColumnStatistics {
	partitioned := make(map[string]bool, len(snapshot.PartitionColumns))
	for _, col := range snapshot.PartitionColumns {
		partitioned[col] = true
	}

	result := make(map[string]ColumnStatistics)
	for _, file := range snapshot.Files {
		for column, value := range file.MinValues {
			entry := result[column]
			if entry.Min == nil || compareScalars(value, entry.Min) < 0 {
				entry.Min = value
			}
			result[column] = entry
		}
		for column, value := range file.MaxValues {
			entry := result[column]
			if entry.Max == nil || compareScalars(value, entry.Max) > 0 {
				entry.Max = value
			}
			result[column] = entry
		}
		for column, count := range file.NullCounts {
			entry := result[column]
			entry.NullCount += count
			result[column] = entry
		}
		for column, value := range file.PartitionValues {
			if !partitioned[column] {
				continue
			}
			entry := result[column]
			if entry.Min == nil || compareScalars(value, entry.Min) < 0 {
				entry.Min = value
			}
			if entry.Max == nil || compareScalars(value, entry.Max) > 0 {
				entry.Max = value
			}
			result[column] = entry
		}
	}

	return result
}

// compareScalars orders two decoded statistics values by their native
// ordering: numeric for numbers, lexicographic for strings. Values of
// differing kinds fall back to their printed form.
func compareScalars(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func partitionKey(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(values[key])
		sb.WriteByte('/')
	}
	return sb.String()
}
