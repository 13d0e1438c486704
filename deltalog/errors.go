package deltalog

import "fmt"

// TableNotFoundError means no commit or checkpoint artifacts exist under the
// table's _delta_log directory.
type TableNotFoundError struct {
	LogPath string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("no delta log artifacts found under %s", e.LogPath)
}

// VersionNotFoundError means a target version was requested but no commit
// artifact for it exists.
type VersionNotFoundError struct {
	Version int64
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("commit for version %d not found", e.Version)
}

// IncompleteCheckpointError means a multi-part checkpoint is missing one or
// more of its declared parts.
type IncompleteCheckpointError struct {
	Version       int64
	PartsFound    int
	PartsExpected int
}

func (e *IncompleteCheckpointError) Error() string {
	return fmt.Sprintf("checkpoint at version %d is incomplete: %d of %d parts present",
		e.Version, e.PartsFound, e.PartsExpected)
}

// CorruptCheckpointError means a checkpoint part failed to decode. Callers
// may fall back to a full commit replay from version 0.
type CorruptCheckpointError struct {
	Version int64
	Part    string
	Err     error
}

func (e *CorruptCheckpointError) Error() string {
	return fmt.Sprintf("corrupt checkpoint part %s at version %d: %v", e.Part, e.Version, e.Err)
}

func (e *CorruptCheckpointError) Unwrap() error { return e.Err }

// CorruptCommitError means a commit file failed to decode. It is always
// fatal to the reconstruction: a gap in the commit sequence makes the
// resulting snapshot inconsistent.
type CorruptCommitError struct {
	Version int64
	Name    string
	Err     error
}

func (e *CorruptCommitError) Error() string {
	return fmt.Sprintf("corrupt commit %s at version %d: %v", e.Name, e.Version, e.Err)
}

func (e *CorruptCommitError) Unwrap() error { return e.Err }

// SchemaNotFoundError means no metadata action was reachable across the
// checkpoint baseline and the replayed commits.
type SchemaNotFoundError struct {
	Version int64
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("no table metadata found up to version %d", e.Version)
}
