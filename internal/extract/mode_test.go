package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const mb = int64(1 << 20)

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name          string
		fileSize      int64
		memLimit      int64
		threshold     int64
		wantStreaming bool
	}{
		{"small file stays direct", 5 * mb, 256 * mb, 100 * mb, false},
		{"over threshold streams", 150 * mb, 256 * mb, 100 * mb, true},
		{"over half mem limit streams", 80 * mb, 128 * mb, 100 * mb, true},
		{"exactly threshold stays direct", 100 * mb, 256 * mb, 100 * mb, false},
		{"exactly half mem limit stays direct", 128 * mb, 256 * mb, 200 * mb, false},
		{"tiny mem limit forces streaming", 10 * mb, 16 * mb, 100 * mb, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode := SelectMode(tt.fileSize, tt.memLimit, tt.threshold)
			assert.Equal(t, tt.wantStreaming, mode.Streaming)
			if mode.Streaming {
				assert.GreaterOrEqual(t, mode.ChunkSize, int64(minChunkSize))
				assert.LessOrEqual(t, mode.ChunkSize, int64(maxChunkSize))
			} else {
				assert.Zero(t, mode.ChunkSize)
			}
		})
	}
}

func TestChunkSizeBand(t *testing.T) {
	// Small files clamp to the minimum, huge files to the maximum.
	assert.Equal(t, int64(minChunkSize), chunkSizeFor(10*mb))
	assert.Equal(t, int64(maxChunkSize), chunkSizeFor(100*1024*mb))
	// Mid-sized files scale proportionally: 1GB / 256 = 4MB.
	assert.Equal(t, 4*mb, chunkSizeFor(1024*mb))
}

func TestSelectModePure(t *testing.T) {
	a := SelectMode(150*mb, 256*mb, 100*mb)
	b := SelectMode(150*mb, 256*mb, 100*mb)
	assert.Equal(t, a, b)
}
