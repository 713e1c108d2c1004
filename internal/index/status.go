package index

// FileStatus is the outcome of indexing a single file. The watcher and the
// MCP tools surface these verbatim, so the strings are part of the API.
type FileStatus string

const (
	StatusSuccess           FileStatus = "success"
	StatusFileDeleted       FileStatus = "file_deleted"
	StatusNotAFile          FileStatus = "not_a_file"
	StatusIgnored           FileStatus = "ignored"
	StatusTooLarge          FileStatus = "too_large"
	StatusNotInProject      FileStatus = "not_in_project"
	StatusReadError         FileStatus = "read_error"
	StatusProjectNotIndexed FileStatus = "project_not_indexed"
	StatusProviderMismatch  FileStatus = "provider_mismatch"
	StatusChunkError        FileStatus = "chunk_error"
	StatusNoChunks          FileStatus = "no_chunks"
	StatusEmbedError        FileStatus = "embed_error"
	StatusUpsertError       FileStatus = "upsert_error"
)

// OK reports whether the file ended up in a consistent indexed state:
// either its chunks were written or its stale chunks were removed.
func (s FileStatus) OK() bool {
	switch s {
	case StatusSuccess, StatusFileDeleted, StatusNoChunks:
		return true
	}
	return false
}

// FileResult reports what happened to one file.
type FileResult struct {
	Path   string     `json:"path"`
	Status FileStatus `json:"status"`
	Chunks int        `json:"chunks"`
	Err    error      `json:"-"`
}
