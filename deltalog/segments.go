package deltalog

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"delta-inspect/storage"
)

const logDir = "_delta_log"

// checkpointRef is one logical checkpoint, possibly split across parts.
// NumParts comes from the artifact names; a multi-part checkpoint with
// fewer parts listed than declared is incomplete.
type checkpointRef struct {
	Version  int64
	Parts    []string
	NumParts int
}

// commitRef is one commit artifact. Its version is encoded in the name.
type commitRef struct {
	Version int64
	Name    string
}

// segments is what the locator hands to the snapshot builder: the checkpoint
// to start from (may be nil) and the commit tail to replay on top of it.
// allCommits holds every commit up to the target version so the builder can
// replay from version 0 when the checkpoint turns out to be unusable.
type segments struct {
	Version    int64
	Checkpoint *checkpointRef
	Commits    []commitRef
	allCommits []commitRef
}

func commitPath(version int64) string {
	return fmt.Sprintf("%s/%020d.json", logDir, version)
}

// parseCommitName extracts the version from a %020d.json artifact name.
func parseCommitName(name string) (int64, bool) {
	base := path.Base(name)
	rest, ok := strings.CutSuffix(base, ".json")
	if !ok || len(rest) != 20 {
		return 0, false
	}
	version, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return version, true
}

// parseCheckpointName extracts version and part layout from a checkpoint
// artifact name: either %020d.checkpoint.parquet (single part) or
// %020d.checkpoint.%010d.%010d.parquet (part n of m).
func parseCheckpointName(name string) (version int64, numParts int, ok bool) {
	base := path.Base(name)
	rest, found := strings.CutSuffix(base, ".parquet")
	if !found {
		return 0, 0, false
	}

	fields := strings.Split(rest, ".")
	if len(fields) < 2 || fields[1] != "checkpoint" || len(fields[0]) != 20 {
		return 0, 0, false
	}
	version, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	switch len(fields) {
	case 2:
		return version, 1, true
	case 4:
		n, err := strconv.Atoi(fields[3])
		if err != nil || n < 1 {
			return 0, 0, false
		}
		return version, n, true
	default:
		return 0, 0, false
	}
}

// findSegments lists the log directory and decides which checkpoint to load
// and which commits to replay for the target version. A nil target resolves
// to the highest commit version found.
func findSegments(ctx context.Context, store storage.Storage, target *int64) (*segments, error) {
	names, err := store.List(ctx, logDir)
	if err != nil {
		return nil, fmt.Errorf("listing delta log: %w", err)
	}

	commits := make(map[int64]commitRef)
	checkpoints := make(map[int64]*checkpointRef)
	for _, name := range names {
		if version, ok := parseCommitName(name); ok {
			commits[version] = commitRef{Version: version, Name: name}
			continue
		}
		if version, numParts, ok := parseCheckpointName(name); ok {
			cp := checkpoints[version]
			if cp == nil {
				cp = &checkpointRef{Version: version, NumParts: numParts}
				checkpoints[version] = cp
			}
			cp.Parts = append(cp.Parts, name)
		}
	}

	if len(commits) == 0 && len(checkpoints) == 0 {
		return nil, &TableNotFoundError{LogPath: logDir}
	}

	resolved := int64(-1)
	if target != nil {
		resolved = *target
		if _, ok := commits[resolved]; !ok {
			return nil, &VersionNotFoundError{Version: resolved}
		}
	} else {
		for version := range commits {
			if version > resolved {
				resolved = version
			}
		}
		for version := range checkpoints {
			if version > resolved {
				resolved = version
			}
		}
	}

	var checkpoint *checkpointRef
	for version, cp := range checkpoints {
		if version > resolved {
			continue
		}
		if checkpoint == nil || version > checkpoint.Version {
			checkpoint = cp
		}
	}
	if checkpoint != nil {
		sort.Strings(checkpoint.Parts)
	}

	segs := &segments{Version: resolved, Checkpoint: checkpoint}
	for version, ref := range commits {
		if version > resolved {
			continue
		}
		segs.allCommits = append(segs.allCommits, ref)
		if checkpoint == nil || version > checkpoint.Version {
			segs.Commits = append(segs.Commits, ref)
		}
	}
	sort.Slice(segs.Commits, func(i, j int) bool { return segs.Commits[i].Version < segs.Commits[j].Version })
	sort.Slice(segs.allCommits, func(i, j int) bool { return segs.allCommits[i].Version < segs.allCommits[j].Version })

	return segs, nil
}
