package deltalog

import (
	"bytes"
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"delta-inspect/storage"
)

// checkpointRow mirrors the columnar checkpoint schema. Each row carries
// exactly one populated action group; columns outside the modeled set are
// ignored by the reader's schema conversion.
type checkpointRow struct {
	Add      *checkpointAdd      `parquet:"add,optional"`
	Remove   *checkpointRemove   `parquet:"remove,optional"`
	MetaData *checkpointMetadata `parquet:"metaData,optional"`
	Protocol *checkpointProtocol `parquet:"protocol,optional"`
}

type checkpointAdd struct {
	Path             string            `parquet:"path"`
	PartitionValues  map[string]string `parquet:"partitionValues"`
	Size             int64             `parquet:"size"`
	ModificationTime int64             `parquet:"modificationTime"`
	DataChange       bool              `parquet:"dataChange"`
	Stats            string            `parquet:"stats,optional"`
}

type checkpointRemove struct {
	Path              string `parquet:"path"`
	DeletionTimestamp int64  `parquet:"deletionTimestamp,optional"`
	DataChange        bool   `parquet:"dataChange"`
}

type checkpointMetadata struct {
	ID               string   `parquet:"id"`
	SchemaString     string   `parquet:"schemaString"`
	PartitionColumns []string `parquet:"partitionColumns,list"`
	CreatedTime      int64    `parquet:"createdTime,optional"`
}

type checkpointProtocol struct {
	MinReaderVersion int32 `parquet:"minReaderVersion"`
	MinWriterVersion int32 `parquet:"minWriterVersion"`
}

// loadCheckpoint decodes all parts of one logical checkpoint into a single
// action sequence. Missing parts fail with IncompleteCheckpointError,
// malformed parts with CorruptCheckpointError; both leave the caller free
// to fall back to a full commit replay.
func loadCheckpoint(ctx context.Context, store storage.Storage, cp *checkpointRef) ([]Action, error) {
	if len(cp.Parts) != cp.NumParts {
		return nil, &IncompleteCheckpointError{
			Version:       cp.Version,
			PartsFound:    len(cp.Parts),
			PartsExpected: cp.NumParts,
		}
	}

	var actions []Action
	for _, part := range cp.Parts {
		data, err := storage.ReadAll(ctx, store, part)
		if err != nil {
			return nil, fmt.Errorf("reading checkpoint part %s: %w", part, err)
		}

		rows, err := parquet.Read[checkpointRow](bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, &CorruptCheckpointError{Version: cp.Version, Part: part, Err: err}
		}

		for _, row := range rows {
			action, err := row.toAction()
			if err != nil {
				return nil, &CorruptCheckpointError{Version: cp.Version, Part: part, Err: err}
			}
			if action != nil {
				actions = append(actions, action)
			}
		}
	}

	return actions, nil
}

func (r checkpointRow) toAction() (Action, error) {
	switch {
	case r.Add != nil:
		record := addRecord{
			Path:             r.Add.Path,
			PartitionValues:  r.Add.PartitionValues,
			Size:             r.Add.Size,
			ModificationTime: r.Add.ModificationTime,
			DataChange:       r.Add.DataChange,
			Stats:            r.Add.Stats,
		}
		add, err := record.toAction()
		if err != nil {
			return nil, err
		}
		return add, nil
	case r.Remove != nil:
		return Remove{
			Path:              r.Remove.Path,
			DeletionTimestamp: r.Remove.DeletionTimestamp,
			DataChange:        r.Remove.DataChange,
		}, nil
	case r.MetaData != nil:
		record := metadataRecord{
			ID:               r.MetaData.ID,
			SchemaString:     r.MetaData.SchemaString,
			PartitionColumns: r.MetaData.PartitionColumns,
			CreatedTime:      r.MetaData.CreatedTime,
		}
		meta, err := record.toAction()
		if err != nil {
			return nil, err
		}
		return meta, nil
	case r.Protocol != nil:
		return Protocol{
			MinReaderVersion: r.Protocol.MinReaderVersion,
			MinWriterVersion: r.Protocol.MinWriterVersion,
		}, nil
	default:
		return nil, nil
	}
}
