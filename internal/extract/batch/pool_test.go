package batch

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doxkit/pdfextract/internal/config"
	"github.com/doxkit/pdfextract/internal/extract"
)

func quietPool(cfg *config.Config) *Pool {
	p := NewPool(cfg)
	p.SetLogger(log.New(io.Discard, "", 0))
	return p
}

func TestProcessIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.pdf")
	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pdf at all"), 0o644))

	p := quietPool(nil)
	results := p.Process(context.Background(), []string{missing, garbage})

	require.Len(t, results, 2)
	assert.Equal(t, missing, results[0].Path)
	assert.Equal(t, garbage, results[1].Path)
	for _, r := range results {
		require.Error(t, r.Err)
		assert.Equal(t, extract.CodeInvalidFormat, extract.CodeOf(r.Err))
		assert.NotEmpty(t, r.Error)
	}
}

func TestProcessAssignsDistinctJobIDs(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 5)
	for i := range paths {
		paths[i] = filepath.Join(dir, "missing.pdf")
	}

	results := quietPool(nil).Process(context.Background(), paths)

	require.Len(t, results, 5)
	seen := make(map[string]bool)
	for _, r := range results {
		assert.NotEmpty(t, r.JobID)
		assert.False(t, seen[r.JobID], "job IDs must be unique")
		seen[r.JobID] = true
	}
}

func TestProcessWorkerClampAndEmptyInput(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Workers = 16

	results := quietPool(cfg).Process(context.Background(), nil)
	assert.Empty(t, results)

	one := quietPool(cfg).Process(context.Background(), []string{filepath.Join(t.TempDir(), "x.pdf")})
	require.Len(t, one, 1)
	require.Error(t, one[0].Err)
}

func TestProcessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := []string{filepath.Join(t.TempDir(), "a.pdf"), filepath.Join(t.TempDir(), "b.pdf")}
	results := quietPool(nil).Process(ctx, paths)

	require.Len(t, results, 2)
	for _, r := range results {
		require.Error(t, r.Err)
	}
}
