package streaming

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doxkit/pdfextract/internal/extract/layout"
)

const mb = int64(1 << 20)

type fakeSource struct {
	pages  []layout.Page
	failAt map[int]error
	loads  []int
}

func (s *fakeSource) PageCount() int { return len(s.pages) }

func (s *fakeSource) Page(index int) (layout.Page, error) {
	s.loads = append(s.loads, index)
	if err, ok := s.failAt[index]; ok {
		return layout.Page{}, err
	}
	return s.pages[index], nil
}

func makeSource(n int) *fakeSource {
	s := &fakeSource{}
	for i := 0; i < n; i++ {
		s.pages = append(s.pages, layout.Page{Index: i})
	}
	return s
}

func collect(t *testing.T, it *BatchIter) []layout.Page {
	t.Helper()
	var pages []layout.Page
	for {
		batch, err := it.Next()
		pages = append(pages, batch.Pages...)
		if errors.Is(err, io.EOF) {
			return pages
		}
		require.NoError(t, err)
	}
}

func TestStreamBatchSizing(t *testing.T) {
	src := makeSource(10)
	// 10MB file, 10 pages, 4MB chunks: 4+4+2.
	it := NewController(10 * mb).Stream(context.Background(), src, 4*mb)

	var sizes []int
	for {
		batch, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		sizes = append(sizes, len(batch.Pages))
		assert.Equal(t, int64(len(batch.Pages))*mb, batch.EstimatedBytes)
	}
	assert.Equal(t, []int{4, 4, 2}, sizes)
}

func TestStreamYieldsAllPagesInOrder(t *testing.T) {
	src := makeSource(7)
	it := NewController(7 * mb).Stream(context.Background(), src, 3*mb)

	pages := collect(t, it)
	require.Len(t, pages, 7)
	for i, p := range pages {
		assert.Equal(t, i, p.Index)
	}
}

func TestStreamIsLazy(t *testing.T) {
	src := makeSource(8)
	it := NewController(8 * mb).Stream(context.Background(), src, 2*mb)

	assert.Empty(t, src.loads, "no page may load before Next")
	_, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, src.loads)
	assert.Equal(t, 6, it.Remaining())
}

func TestStreamExhaustionIsTerminal(t *testing.T) {
	src := makeSource(2)
	it := NewController(2 * mb).Stream(context.Background(), src, 8*mb)

	batch, err := it.Next()
	require.NoError(t, err)
	assert.Len(t, batch.Pages, 2)

	for i := 0; i < 3; i++ {
		_, err := it.Next()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestStreamPageFailureYieldsPartialBatch(t *testing.T) {
	src := makeSource(6)
	boom := errors.New("corrupt stream")
	src.failAt = map[int]error{3: boom}

	it := NewController(6 * mb).Stream(context.Background(), src, 6*mb)

	batch, err := it.Next()
	require.ErrorIs(t, err, boom)
	assert.Len(t, batch.Pages, 3, "pages before the failure are retained")

	// Resumes behind the failing page.
	rest := collect(t, it)
	require.Len(t, rest, 2)
	assert.Equal(t, 4, rest[0].Index)
	assert.Equal(t, 5, rest[1].Index)
}

func TestStreamContextCancellation(t *testing.T) {
	src := makeSource(4)
	ctx, cancel := context.WithCancel(context.Background())
	it := NewController(4 * mb).Stream(ctx, src, mb)

	_, err := it.Next()
	require.NoError(t, err)
	cancel()
	_, err = it.Next()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamSinglePageDocument(t *testing.T) {
	src := makeSource(1)
	it := NewController(100).Stream(context.Background(), src, mb)
	pages := collect(t, it)
	assert.Len(t, pages, 1)
}

func TestBudgetAcquireRelease(t *testing.T) {
	b := NewBudget(10 * mb)

	assert.True(t, b.Acquire(4*mb))
	assert.True(t, b.Acquire(4*mb))
	assert.Equal(t, 8*mb, b.Used())

	// The breaching chunk is still counted; the caller aborts after.
	assert.False(t, b.Acquire(4*mb))
	assert.Equal(t, 12*mb, b.Used())
	assert.Equal(t, 12*mb, b.Peak())

	b.Release(12 * mb)
	assert.Zero(t, b.Used())
	assert.Equal(t, 12*mb, b.Peak(), "peak survives release")
}

func TestBudgetSoftBound(t *testing.T) {
	// Usage never exceeds limit + one chunk when the caller stops on false.
	limit, chunk := 8*mb, 3*mb
	b := NewBudget(limit)
	for b.Acquire(chunk) {
	}
	assert.LessOrEqual(t, b.Peak(), limit+chunk)
}

func TestBudgetUnlimited(t *testing.T) {
	b := NewBudget(0)
	assert.True(t, b.Acquire(1<<40))
	assert.Zero(t, b.Limit())
}

func TestBudgetConcurrentUpdates(t *testing.T) {
	b := NewBudget(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Acquire(1)
				b.Release(1)
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, b.Used())
	assert.LessOrEqual(t, b.Peak(), int64(16))
	assert.Greater(t, b.Peak(), int64(0))
}
