package analyze

import "fmt"

// EmptyFileSetError means a statistic that is undefined on an empty input
// was requested. File count and total size remain defined as zero.
type EmptyFileSetError struct{}

func (e *EmptyFileSetError) Error() string {
	return "active file set is empty"
}

// MissingStatisticsError means a file lacks min/max statistics for one of
// the selected clustering columns. Fatal in strict mode; lenient mode
// excludes the file and counts it instead.
type MissingStatisticsError struct {
	Column string
	Path   string
}

func (e *MissingStatisticsError) Error() string {
	return fmt.Sprintf("file %s has no min/max statistics for column %s", e.Path, e.Column)
}
