package deltalog

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"delta-inspect/storage"
)

// TableSnapshot is the reconstructed state of a table at one version. It is
// immutable after construction; recomputation produces a new snapshot.
type TableSnapshot struct {
	Version          int64
	TableID          string
	Schema           []SchemaField
	PartitionColumns []string
	Protocol         *Protocol

	// Files is the active file set, unique by path, sorted by path.
	Files []FileEntry

	// TableCreatedTime comes from the metadata action; CreatedTimestamp is
	// the commit-info timestamp of version 0, present only when version 0
	// was replayed.
	TableCreatedTime    *time.Time
	CreatedTimestamp    *time.Time
	LastCommitTimestamp *time.Time
}

// Options controls a reconstruction.
type Options struct {
	// Version pins the snapshot to a specific commit version; nil means the
	// latest version found.
	Version *int64

	// DecodeConcurrency bounds the parallel commit decode phase; zero means
	// DefaultDecodeConcurrency.
	DecodeConcurrency int
}

// foldState is the accumulator threaded through the sequential fold. Replay
// of a later action always supersedes earlier state for the same path.
type foldState struct {
	files       map[string]FileEntry
	meta        *Metadata
	protocol    *Protocol
	commitTimes map[int64]int64
}

func newFoldState() *foldState {
	return &foldState{
		files:       make(map[string]FileEntry),
		commitTimes: make(map[int64]int64),
	}
}

func (s *foldState) apply(action Action) {
	switch a := action.(type) {
	case Add:
		s.files[a.Path] = FileEntry{
			Path:            a.Path,
			SizeBytes:       a.SizeBytes,
			NumRecords:      a.NumRecords,
			PartitionValues: a.PartitionValues,
			MinValues:       a.MinValues,
			MaxValues:       a.MaxValues,
			NullCounts:      a.NullCounts,
		}
	case Remove:
		delete(s.files, a.Path)
	case Metadata:
		meta := a
		s.meta = &meta
	case CommitInfo:
		s.commitTimes[a.Version] = a.Timestamp
	case Protocol:
		protocol := a
		s.protocol = &protocol
	}
}

func (s *foldState) applyAll(actions []Action) {
	for _, action := range actions {
		s.apply(action)
	}
}

// Reconstruct merges the best usable checkpoint with the commit tail into a
// snapshot of the active file set and current schema. An incomplete or
// corrupt checkpoint downgrades to a full replay from version 0 before
// giving up.
func Reconstruct(ctx context.Context, store storage.Storage, opts Options) (*TableSnapshot, error) {
	segs, err := findSegments(ctx, store, opts.Version)
	if err != nil {
		return nil, err
	}

	state := newFoldState()
	commits := segs.Commits

	if segs.Checkpoint != nil {
		actions, err := loadCheckpoint(ctx, store, segs.Checkpoint)
		switch {
		case err == nil:
			state.applyAll(actions)
		case isRecoverableCheckpointError(err):
			log.Warn("checkpoint unusable, replaying full commit log",
				"version", segs.Checkpoint.Version, "err", err)
			commits = segs.allCommits
		default:
			return nil, err
		}
	}

	decoded, err := decodeCommits(ctx, store, commits, opts.DecodeConcurrency)
	if err != nil {
		return nil, err
	}
	// The fold is strictly sequential in version order: later actions must
	// supersede earlier ones.
	for _, actions := range decoded {
		state.applyAll(actions)
	}

	if state.meta == nil {
		return nil, &SchemaNotFoundError{Version: segs.Version}
	}

	return buildSnapshot(segs, state), nil
}

func isRecoverableCheckpointError(err error) bool {
	var incomplete *IncompleteCheckpointError
	var corrupt *CorruptCheckpointError
	return errors.As(err, &incomplete) || errors.As(err, &corrupt)
}

func buildSnapshot(segs *segments, state *foldState) *TableSnapshot {
	snapshot := &TableSnapshot{
		Version:          segs.Version,
		TableID:          state.meta.TableID,
		Schema:           state.meta.Schema,
		PartitionColumns: state.meta.PartitionColumns,
		Protocol:         state.protocol,
	}

	if state.meta.CreatedTime > 0 {
		snapshot.TableCreatedTime = msToTime(state.meta.CreatedTime)
	}
	if ts, ok := state.commitTimes[0]; ok {
		snapshot.CreatedTimestamp = msToTime(ts)
	}
	if ts, ok := state.commitTimes[segs.Version]; ok {
		snapshot.LastCommitTimestamp = msToTime(ts)
	}

	snapshot.Files = make([]FileEntry, 0, len(state.files))
	for _, entry := range state.files {
		snapshot.Files = append(snapshot.Files, entry)
	}
	sort.Slice(snapshot.Files, func(i, j int) bool { return snapshot.Files[i].Path < snapshot.Files[j].Path })

	return snapshot
}

func msToTime(ms int64) *time.Time {
	t := time.UnixMilli(ms)
	return &t
}
