package deltalog

// Action is one record of the delta log, a closed set of kinds. Each commit
// line and each checkpoint row decodes into exactly one Action.
type Action interface {
	isAction()
}

// Add registers a data file as active, together with its footer statistics.
type Add struct {
	Path             string
	SizeBytes        int64
	PartitionValues  map[string]string
	ModificationTime int64 // unix ms
	DataChange       bool

	// From the embedded stats blob, absent entries mean the writer recorded
	// no statistics for that column.
	NumRecords int64
	MinValues  map[string]any
	MaxValues  map[string]any
	NullCounts map[string]int64
}

// Remove tombstones a previously added data file.
type Remove struct {
	Path              string
	DeletionTimestamp int64 // unix ms
	DataChange        bool
}

// Metadata carries the table schema and partitioning. Only the last one
// observed across a replay is current.
type Metadata struct {
	TableID          string
	CreatedTime      int64 // unix ms
	Schema           []SchemaField
	PartitionColumns []string
}

// CommitInfo carries per-commit provenance. Version is the position of the
// commit in the log, assigned by the locator rather than parsed from the
// file content.
type CommitInfo struct {
	Version             int64
	Timestamp           int64 // unix ms
	Operation           string
	OperationParameters map[string]string
}

// Protocol records reader/writer version requirements. It is recorded, not
// interpreted.
type Protocol struct {
	MinReaderVersion int32
	MinWriterVersion int32
}

func (Add) isAction()        {}
func (Remove) isAction()     {}
func (Metadata) isAction()   {}
func (CommitInfo) isAction() {}
func (Protocol) isAction()   {}

// SchemaField is one column of the table schema.
type SchemaField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// FileEntry is one currently active data file. A snapshot holds at most one
// entry per path.
type FileEntry struct {
	Path            string            `json:"path"`
	SizeBytes       int64             `json:"size_bytes"`
	NumRecords      int64             `json:"num_records"`
	PartitionValues map[string]string `json:"partition_values,omitempty"`
	MinValues       map[string]any    `json:"min_values,omitempty"`
	MaxValues       map[string]any    `json:"max_values,omitempty"`
	NullCounts      map[string]int64  `json:"null_counts,omitempty"`
}
