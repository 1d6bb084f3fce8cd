package streaming

import (
	"context"
	"fmt"
	"io"

	"github.com/doxkit/pdfextract/internal/extract/layout"
)

// PageSource supplies page models in index order. Implementations are
// not required to be safe for concurrent use; one iterator owns one
// source end-to-end.
type PageSource interface {
	PageCount() int
	Page(index int) (layout.Page, error)
}

// Batch is one chunk's worth of pages, ready for analysis.
type Batch struct {
	Start          int // index of the first page in the batch
	Pages          []layout.Page
	EstimatedBytes int64
}

// Controller slices a document into page batches sized to the chunk
// budget.
type Controller struct {
	fileSize int64
}

// NewController creates a controller for a document of the given size.
func NewController(fileSize int64) *Controller {
	return &Controller{fileSize: fileSize}
}

// Stream returns a lazy, finite, non-restartable iterator over page
// batches. Batch size is derived from the average page weight so each
// batch approximates chunkSize bytes.
func (c *Controller) Stream(ctx context.Context, src PageSource, chunkSize int64) *BatchIter {
	total := src.PageCount()
	perPage := int64(1)
	if total > 0 && c.fileSize > 0 {
		perPage = c.fileSize / int64(total)
		if perPage < 1 {
			perPage = 1
		}
	}
	pagesPerBatch := 1
	if chunkSize > 0 {
		if n := chunkSize / perPage; n > 1 {
			pagesPerBatch = int(n)
		}
	}
	return &BatchIter{
		ctx:           ctx,
		src:           src,
		total:         total,
		perPage:       perPage,
		pagesPerBatch: pagesPerBatch,
	}
}

// BatchIter walks the document once. After Next returns io.EOF the
// iterator is exhausted; it cannot be restarted.
type BatchIter struct {
	ctx           context.Context
	src           PageSource
	total         int
	perPage       int64
	pagesPerBatch int
	cursor        int
}

// Next yields the following batch. A page-level failure returns the
// partial batch together with the error; the cursor has already moved
// past the failing page, so a subsequent call resumes behind it. End of
// document is io.EOF.
func (it *BatchIter) Next() (Batch, error) {
	if it.cursor >= it.total {
		return Batch{}, io.EOF
	}
	if err := it.ctx.Err(); err != nil {
		return Batch{}, err
	}

	batch := Batch{Start: it.cursor}
	for len(batch.Pages) < it.pagesPerBatch && it.cursor < it.total {
		idx := it.cursor
		it.cursor++

		page, err := it.src.Page(idx)
		if err != nil {
			batch.EstimatedBytes += it.perPage
			return batch, fmt.Errorf("page %d: %w", idx, err)
		}
		batch.Pages = append(batch.Pages, page)
		batch.EstimatedBytes += it.perPage
	}
	return batch, nil
}

// Remaining reports how many pages have not been yielded yet.
func (it *BatchIter) Remaining() int {
	if it.cursor >= it.total {
		return 0
	}
	return it.total - it.cursor
}
