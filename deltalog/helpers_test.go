package deltalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"delta-inspect/storage"
)

// tableBuilder writes a synthetic delta log into a temp directory so tests
// can exercise the real locator, decoders and fold.
type tableBuilder struct {
	t   *testing.T
	dir string
}

func newTableBuilder(t *testing.T) *tableBuilder {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, logDir), 0o755))
	return &tableBuilder{t: t, dir: dir}
}

func (b *tableBuilder) store() storage.Storage {
	return storage.NewLocalStorage(b.dir)
}

func (b *tableBuilder) writeArtifact(name string, data []byte) {
	b.t.Helper()
	require.NoError(b.t, os.WriteFile(filepath.Join(b.dir, logDir, name), data, 0o644))
}

func (b *tableBuilder) commit(version int64, lines ...string) {
	b.t.Helper()
	b.writeArtifact(fmt.Sprintf("%020d.json", version), []byte(strings.Join(lines, "\n")+"\n"))
}

func (b *tableBuilder) checkpoint(version int64, rows []checkpointRow) {
	b.t.Helper()
	b.writeArtifact(fmt.Sprintf("%020d.checkpoint.parquet", version), encodeParquet(b.t, rows))
}

func (b *tableBuilder) checkpointPart(version int64, part, of int, rows []checkpointRow) {
	b.t.Helper()
	name := fmt.Sprintf("%020d.checkpoint.%010d.%010d.parquet", version, part, of)
	b.writeArtifact(name, encodeParquet(b.t, rows))
}

func encodeParquet(t *testing.T, rows []checkpointRow) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	writer := parquet.NewGenericWriter[checkpointRow](buf)
	_, err := writer.Write(rows)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

// line renders one commit line of the given action kind.
func line(t *testing.T, kind string, payload any) string {
	t.Helper()
	data, err := jsoniter.ConfigFastest.Marshal(map[string]any{kind: payload})
	require.NoError(t, err)
	return string(data)
}

func addLine(t *testing.T, path string, size int64, stats map[string]any) string {
	t.Helper()
	payload := map[string]any{
		"path":             path,
		"size":             size,
		"modificationTime": int64(1700000000000),
		"dataChange":       true,
	}
	if stats != nil {
		encoded, err := jsoniter.ConfigFastest.MarshalToString(stats)
		require.NoError(t, err)
		payload["stats"] = encoded
	}
	return line(t, "add", payload)
}

func removeLine(t *testing.T, path string) string {
	t.Helper()
	return line(t, "remove", map[string]any{
		"path":              path,
		"deletionTimestamp": int64(1700000001000),
		"dataChange":        true,
	})
}

func metadataLine(t *testing.T, partitionColumns []string) string {
	t.Helper()
	return line(t, "metaData", map[string]any{
		"id":               "11111111-2222-3333-4444-555555555555",
		"schemaString":     testSchemaString(t),
		"partitionColumns": partitionColumns,
		"createdTime":      int64(1690000000000),
	})
}

func commitInfoLine(t *testing.T, timestamp int64, operation string) string {
	t.Helper()
	return line(t, "commitInfo", map[string]any{
		"timestamp": timestamp,
		"operation": operation,
	})
}

func testSchemaString(t *testing.T) string {
	t.Helper()
	schema := map[string]any{
		"type": "struct",
		"fields": []map[string]any{
			{"name": "id", "type": "long", "nullable": false, "metadata": map[string]any{}},
			{"name": "name", "type": "string", "nullable": true, "metadata": map[string]any{}},
			{"name": "region", "type": "string", "nullable": true, "metadata": map[string]any{}},
		},
	}
	encoded, err := jsoniter.ConfigFastest.MarshalToString(schema)
	require.NoError(t, err)
	return encoded
}

func checkpointAddRow(t *testing.T, path string, size int64, stats map[string]any) checkpointRow {
	t.Helper()
	add := &checkpointAdd{
		Path:             path,
		PartitionValues:  map[string]string{},
		Size:             size,
		ModificationTime: 1700000000000,
		DataChange:       true,
	}
	if stats != nil {
		encoded, err := jsoniter.ConfigFastest.MarshalToString(stats)
		require.NoError(t, err)
		add.Stats = encoded
	}
	return checkpointRow{Add: add}
}

func checkpointMetadataRow(t *testing.T) checkpointRow {
	t.Helper()
	return checkpointRow{MetaData: &checkpointMetadata{
		ID:               "11111111-2222-3333-4444-555555555555",
		SchemaString:     testSchemaString(t),
		PartitionColumns: []string{},
		CreatedTime:      1690000000000,
	}}
}
