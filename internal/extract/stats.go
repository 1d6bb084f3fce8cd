package extract

import "time"

// ExtractionStats summarizes one extraction run. It is populated as the
// pipeline progresses and frozen once the handle reaches a terminal state.
type ExtractionStats struct {
	TotalPages      int           `json:"total_pages"`
	PagesProcessed  int           `json:"pages_processed"`
	PagesFailed     int           `json:"pages_failed"`
	BlocksFound     int           `json:"blocks_found"`
	TablesFound     int           `json:"tables_found"`
	StreamingUsed   bool          `json:"streaming_used"`
	ChunkSizeBytes  int64         `json:"chunk_size_bytes,omitempty"`
	PeakMemoryBytes int64         `json:"peak_memory_bytes"`
	Elapsed         time.Duration `json:"elapsed_ns"`
	Warnings        []string      `json:"warnings,omitempty"`
	FailureReason   string        `json:"failure_reason,omitempty"`
}
