package deltalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"delta-inspect/storage"
)

// DefaultDecodeConcurrency bounds the parallel commit decode phase.
const DefaultDecodeConcurrency = 8

// commitLine mirrors one line of a commit file. Exactly one of the fields
// is set per line; lines carrying action kinds outside the modeled set
// (e.g. txn) are skipped.
type commitLine struct {
	Add        *addRecord        `json:"add"`
	Remove     *removeRecord     `json:"remove"`
	MetaData   *metadataRecord   `json:"metaData"`
	CommitInfo *commitInfoRecord `json:"commitInfo"`
	Protocol   *protocolRecord   `json:"protocol"`
}

type addRecord struct {
	Path             string            `json:"path"`
	PartitionValues  map[string]string `json:"partitionValues"`
	Size             int64             `json:"size"`
	ModificationTime int64             `json:"modificationTime"`
	DataChange       bool              `json:"dataChange"`
	Stats            string            `json:"stats"`
}

type removeRecord struct {
	Path              string `json:"path"`
	DeletionTimestamp int64  `json:"deletionTimestamp"`
	DataChange        bool   `json:"dataChange"`
}

type metadataRecord struct {
	ID               string   `json:"id"`
	SchemaString     string   `json:"schemaString"`
	PartitionColumns []string `json:"partitionColumns"`
	CreatedTime      int64    `json:"createdTime"`
}

type commitInfoRecord struct {
	Timestamp           int64             `json:"timestamp"`
	Operation           string            `json:"operation"`
	OperationParameters map[string]string `json:"operationParameters"`
}

type protocolRecord struct {
	MinReaderVersion int32 `json:"minReaderVersion"`
	MinWriterVersion int32 `json:"minWriterVersion"`
}

// statsBlob is the JSON statistics string embedded in add records.
type statsBlob struct {
	NumRecords int64            `json:"numRecords"`
	MinValues  map[string]any   `json:"minValues"`
	MaxValues  map[string]any   `json:"maxValues"`
	NullCount  map[string]int64 `json:"nullCount"`
}

type schemaStringRoot struct {
	Type   string              `json:"type"`
	Fields []schemaStringField `json:"fields"`
}

type schemaStringField struct {
	Name     string          `json:"name"`
	Type     json.RawMessage `json:"type"`
	Nullable bool            `json:"nullable"`
}

func (r *addRecord) toAction() (Add, error) {
	action := Add{
		Path:             r.Path,
		SizeBytes:        r.Size,
		PartitionValues:  r.PartitionValues,
		ModificationTime: r.ModificationTime,
		DataChange:       r.DataChange,
	}
	if r.Stats == "" {
		return action, nil
	}

	var stats statsBlob
	if err := jsoniter.ConfigFastest.UnmarshalFromString(r.Stats, &stats); err != nil {
		return Add{}, fmt.Errorf("decoding stats for %s: %w", r.Path, err)
	}
	action.NumRecords = stats.NumRecords
	action.MinValues = stats.MinValues
	action.MaxValues = stats.MaxValues
	action.NullCounts = stats.NullCount

	return action, nil
}

func (r *metadataRecord) toAction() (Metadata, error) {
	schema, err := parseSchemaString(r.SchemaString)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		TableID:          r.ID,
		CreatedTime:      r.CreatedTime,
		Schema:           schema,
		PartitionColumns: r.PartitionColumns,
	}, nil
}

// parseSchemaString decodes the JSON-serialized struct type carried by
// metadata actions. Nested field types are kept as their raw JSON text.
func parseSchemaString(s string) ([]SchemaField, error) {
	var root schemaStringRoot
	if err := jsoniter.ConfigFastest.UnmarshalFromString(s, &root); err != nil {
		return nil, fmt.Errorf("decoding schema string: %w", err)
	}

	fields := make([]SchemaField, 0, len(root.Fields))
	for _, f := range root.Fields {
		typeName := string(f.Type)
		var plain string
		if err := jsoniter.ConfigFastest.Unmarshal(f.Type, &plain); err == nil {
			typeName = plain
		}
		fields = append(fields, SchemaField{Name: f.Name, Type: typeName, Nullable: f.Nullable})
	}
	return fields, nil
}

// decodeCommit turns one commit file into its ordered action list. Line
// order is significant and preserved.
func decodeCommit(data []byte, version int64) ([]Action, error) {
	var actions []Action
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var record commitLine
		if err := jsoniter.ConfigFastest.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		switch {
		case record.Add != nil:
			add, err := record.Add.toAction()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			actions = append(actions, add)
		case record.Remove != nil:
			actions = append(actions, Remove{
				Path:              record.Remove.Path,
				DeletionTimestamp: record.Remove.DeletionTimestamp,
				DataChange:        record.Remove.DataChange,
			})
		case record.MetaData != nil:
			meta, err := record.MetaData.toAction()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			actions = append(actions, meta)
		case record.CommitInfo != nil:
			actions = append(actions, CommitInfo{
				Version:             version,
				Timestamp:           record.CommitInfo.Timestamp,
				Operation:           record.CommitInfo.Operation,
				OperationParameters: record.CommitInfo.OperationParameters,
			})
		case record.Protocol != nil:
			actions = append(actions, Protocol{
				MinReaderVersion: record.Protocol.MinReaderVersion,
				MinWriterVersion: record.Protocol.MinWriterVersion,
			})
		}
	}
	return actions, nil
}

// decodeCommits fetches and decodes the given commits concurrently. The
// result is indexed by position so the caller can fold it strictly in
// version order; only the decode phase is parallel.
func decodeCommits(ctx context.Context, store storage.Storage, commits []commitRef, concurrency int) ([][]Action, error) {
	if concurrency <= 0 {
		concurrency = DefaultDecodeConcurrency
	}

	decoded := make([][]Action, len(commits))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, commit := range commits {
		i, commit := i, commit
		group.Go(func() error {
			data, err := storage.ReadAll(ctx, store, commit.Name)
			if err != nil {
				return fmt.Errorf("reading commit %s: %w", commit.Name, err)
			}
			actions, err := decodeCommit(data, commit.Version)
			if err != nil {
				return &CorruptCommitError{Version: commit.Version, Name: commit.Name, Err: err}
			}
			decoded[i] = actions
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return decoded, nil
}
