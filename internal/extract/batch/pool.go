// Package batch processes multiple documents through a bounded worker
// pool. Each worker owns one document handle end to end; the only state
// shared between workers is the atomic memory budget.
package batch

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/doxkit/pdfextract/internal/config"
	"github.com/doxkit/pdfextract/internal/extract"
	"github.com/doxkit/pdfextract/internal/extract/ocr"
	"github.com/doxkit/pdfextract/internal/extract/streaming"
)

// Job is one document to process.
type Job struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Result is the outcome for one job. Err is set when the document failed;
// sibling documents are unaffected.
type Result struct {
	JobID string                  `json:"job_id"`
	Path  string                  `json:"path"`
	Text  string                  `json:"text,omitempty"`
	Stats extract.ExtractionStats `json:"stats"`
	Err   error                   `json:"-"`
	Error string                  `json:"error,omitempty"`
}

// Pool runs document extraction jobs with bounded concurrency.
type Pool struct {
	cfg    *config.Config
	logger *log.Logger
	engine ocr.Engine
}

// NewPool creates a pool sized by cfg.Workers.
func NewPool(cfg *config.Config) *Pool {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Pool{
		cfg:    cfg,
		logger: log.New(os.Stderr, "[Batch] ", log.LstdFlags),
		engine: ocr.NoOpEngine{},
	}
}

// SetLogger replaces the pool's logger.
func (p *Pool) SetLogger(l *log.Logger) {
	if l != nil {
		p.logger = l
	}
}

// SetOCREngine sets the engine injected into every handle.
func (p *Pool) SetOCREngine(e ocr.Engine) {
	if e != nil {
		p.engine = e
	}
}

// Process extracts text from every path and returns results in input
// order once all workers have finished. A per-document timeout bounds
// each job; one document failing never aborts the others.
func (p *Pool) Process(ctx context.Context, paths []string) []Result {
	jobs := make([]Job, len(paths))
	for i, path := range paths {
		jobs[i] = Job{ID: uuid.NewString(), Path: path}
	}

	results := make([]Result, len(jobs))
	budget := streaming.NewBudget(p.cfg.MemoryLimitBytes)

	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = p.runJob(ctx, jobs[i], budget)
			}
		}()
	}

	for i := range jobs {
		select {
		case indices <- i:
		case <-ctx.Done():
			results[i] = Result{JobID: jobs[i].ID, Path: jobs[i].Path, Err: ctx.Err(), Error: ctx.Err().Error()}
		}
	}
	close(indices)
	wg.Wait()

	return results
}

// runJob processes one document under the per-document timeout.
func (p *Pool) runJob(ctx context.Context, job Job, budget *streaming.Budget) Result {
	res := Result{JobID: job.ID, Path: job.Path}

	jobCtx, cancel := context.WithTimeout(ctx, p.cfg.DocumentTimeout)
	defer cancel()

	h, err := extract.Open(job.Path, p.cfg)
	if err != nil {
		return res.fail(err)
	}
	defer h.Close()

	h.UseBudget(budget)
	h.SetOCREngine(p.engine)

	if h.CheckEncryption().IsEncrypted {
		if _, err := h.TryCommonPasswords(nil); err != nil {
			return res.fail(err)
		}
	}

	text, err := h.GetText(jobCtx)
	res.Text = text
	res.Stats = h.GetExtractionStats()
	if err != nil {
		p.logger.Printf("job %s (%s): %v", job.ID, job.Path, err)
		return res.fail(err)
	}
	return res
}

func (r Result) fail(err error) Result {
	r.Err = err
	r.Error = err.Error()
	return r
}
