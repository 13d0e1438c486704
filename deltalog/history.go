package deltalog

import (
	"bytes"
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"delta-inspect/storage"
)

// VersionInfo is one entry of the commit history: version plus best-effort
// commit-info metadata. Timestamp is nil when the commit carries no
// commit-info record.
type VersionInfo struct {
	Version             int64             `json:"version"`
	Timestamp           *time.Time        `json:"timestamp,omitempty"`
	Operation           string            `json:"operation,omitempty"`
	OperationParameters map[string]string `json:"operation_parameters,omitempty"`
}

// ListVersions reports version/timestamp/operation for every commit without
// replaying file state. Only the commit-info line of each commit is decoded;
// commits lacking one still produce an entry.
func ListVersions(ctx context.Context, store storage.Storage) ([]VersionInfo, error) {
	segs, err := findSegments(ctx, store, nil)
	if err != nil {
		return nil, err
	}

	infos := make([]VersionInfo, 0, len(segs.allCommits))
	for _, commit := range segs.allCommits {
		data, err := storage.ReadAll(ctx, store, commit.Name)
		if err != nil {
			return nil, fmt.Errorf("reading commit %s: %w", commit.Name, err)
		}

		info := VersionInfo{Version: commit.Version}
		if record := scanCommitInfo(data); record != nil {
			info.Timestamp = msToTime(record.Timestamp)
			info.Operation = record.Operation
			info.OperationParameters = record.OperationParameters
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// scanCommitInfo finds the first commit-info record of a commit file.
// Malformed lines are skipped: history is best-effort metadata, not
// structurally required.
func scanCommitInfo(data []byte) *commitInfoRecord {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var record struct {
			CommitInfo *commitInfoRecord `json:"commitInfo"`
		}
		if err := jsoniter.ConfigFastest.Unmarshal(line, &record); err != nil {
			continue
		}
		if record.CommitInfo != nil {
			return record.CommitInfo
		}
	}
	return nil
}

// OperationParameter scans history (newest first) for a parameter recorded
// by one of the given operations, e.g. zOrderBy on OPTIMIZE commits or
// clusterBy on CREATE TABLE. Matching operations lacking the key do not
// stop the scan; older ones may still carry it. The returned value is the
// raw JSON text the writer stored.
func OperationParameter(history []VersionInfo, key string, operations ...string) (string, bool) {
	wanted := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		wanted[op] = struct{}{}
	}

	for i := len(history) - 1; i >= 0; i-- {
		if _, ok := wanted[history[i].Operation]; !ok {
			continue
		}
		if value, ok := history[i].OperationParameters[key]; ok && value != "" {
			return value, true
		}
	}
	return "", false
}
