package extract

// Mode is the processing strategy for one document.
type Mode struct {
	Streaming bool  `json:"streaming"`
	ChunkSize int64 `json:"chunk_size,omitempty"` // bytes, streaming only
}

const (
	// minChunkSize and maxChunkSize bound the streaming chunk size so the
	// chunk count stays manageable for any file size.
	minChunkSize = 1 << 20  // 1MB
	maxChunkSize = 16 << 20 // 16MB

	// memorySafetyFactor leaves headroom for parsed-structure overhead,
	// which typically runs 2-4x the raw bytes.
	memorySafetyFactor = 0.5
)

// SelectMode picks in-memory vs. streaming processing. Pure function:
// streaming is chosen when the file exceeds the streaming threshold or
// half the memory limit, whichever is lower.
func SelectMode(fileSize, memLimit, streamThreshold int64) Mode {
	if fileSize > streamThreshold || float64(fileSize) > float64(memLimit)*memorySafetyFactor {
		return Mode{Streaming: true, ChunkSize: chunkSizeFor(fileSize)}
	}
	return Mode{}
}

// chunkSizeFor scales the chunk with file size inside the configured
// band, targeting on the order of 256 chunks per document.
func chunkSizeFor(fileSize int64) int64 {
	size := fileSize / 256
	if size < minChunkSize {
		return minChunkSize
	}
	if size > maxChunkSize {
		return maxChunkSize
	}
	return size
}
