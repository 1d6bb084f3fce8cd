// Package extract orchestrates PDF text extraction: encryption gating,
// processing-mode selection, layout analysis, table detection and OCR
// readiness advice behind a single document handle.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/doxkit/pdfextract/internal/config"
	"github.com/doxkit/pdfextract/internal/extract/ocr"
	"github.com/doxkit/pdfextract/internal/extract/security"
	"github.com/doxkit/pdfextract/internal/extract/streaming"
)

// State tracks a handle through its lifecycle. AuthFailed is terminal:
// content operations keep failing but metadata stays available.
type State int

const (
	StateUnopened State = iota
	StateOpened
	StateAuthFailed
	StateModeSelected
	StateExtracting
	StateCompleted
	StatePartiallyFailed
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpened:
		return "opened"
	case StateAuthFailed:
		return "auth_failed"
	case StateModeSelected:
		return "mode_selected"
	case StateExtracting:
		return "extracting"
	case StateCompleted:
		return "completed"
	case StatePartiallyFailed:
		return "partially_failed"
	default:
		return "unknown"
	}
}

// tailScanWindow bounds how much of the file the encryption scan reads
// before falling back to the whole file. Trailers and their encryption
// dictionaries live near the end in practice.
const tailScanWindow = 1 << 20

// DocumentHandle is the per-document entry point. A handle is safe for
// concurrent use; extraction runs once and the result is cached.
type DocumentHandle struct {
	mu     sync.Mutex
	cfg    *config.Config
	logger *log.Logger

	path string
	file *os.File // nil for byte-slice opens
	data []byte   // nil for path opens
	ra   io.ReaderAt
	size int64

	version string
	state   State
	mode    Mode

	gate     *security.Gate
	password string

	reader    *pdf.Reader
	src       streaming.PageSource
	pageCount int

	engine ocr.Engine
	budget *streaming.Budget

	result *extractionResult
}

// Open opens a document from a file path. Unencrypted documents are
// validated and ready for extraction on return; encrypted documents stay
// in StateOpened until a password authenticates.
func Open(path string, cfg *config.Config) (*DocumentHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapError(CodeInvalidFormat, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, WrapError(CodeInvalidFormat, err)
	}

	h := &DocumentHandle{
		path: path,
		file: f,
		ra:   f,
		size: info.Size(),
	}
	if err := h.init(cfg); err != nil {
		f.Close()
		return nil, err
	}
	return h, nil
}

// OpenBytes opens a document already held in memory.
func OpenBytes(data []byte, cfg *config.Config) (*DocumentHandle, error) {
	h := &DocumentHandle{
		data: data,
		ra:   bytes.NewReader(data),
		size: int64(len(data)),
	}
	if err := h.init(cfg); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *DocumentHandle) init(cfg *config.Config) error {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	h.cfg = cfg
	h.logger = log.New(os.Stderr, "[Extract] ", log.LstdFlags)
	h.engine = ocr.NoOpEngine{}
	h.budget = streaming.NewBudget(cfg.MemoryLimitBytes)

	head := make([]byte, 1024)
	n, _ := h.ra.ReadAt(head, 0)
	h.version = scanVersion(head[:n])
	if h.version == "" {
		return NewError(CodeInvalidFormat)
	}

	gate, err := h.scanGate()
	if err != nil {
		return WrapError(CodeInvalidFormat, err)
	}
	h.gate = gate
	h.state = StateOpened

	if !gate.Info().IsEncrypted {
		return h.prepare("")
	}
	return nil
}

// scanGate runs encryption detection over the trailer region, rereading
// the whole file only when the encryption object lies outside the tail.
func (h *DocumentHandle) scanGate() (*security.Gate, error) {
	if h.data != nil {
		return security.NewGate(h.data)
	}
	if h.size <= tailScanWindow {
		data, err := h.readAll()
		if err != nil {
			return nil, err
		}
		return security.NewGate(data)
	}

	tail := make([]byte, tailScanWindow)
	if _, err := h.ra.ReadAt(tail, h.size-tailScanWindow); err != nil {
		return nil, err
	}
	if g, err := security.NewGate(tail); err == nil {
		return g, nil
	}
	data, err := h.readAll()
	if err != nil {
		return nil, err
	}
	return security.NewGate(data)
}

func (h *DocumentHandle) readAll() ([]byte, error) {
	if h.data != nil {
		return h.data, nil
	}
	return io.ReadAll(io.NewSectionReader(h.ra, 0, h.size))
}

func (h *DocumentHandle) readSeeker() io.ReadSeeker {
	if h.file != nil {
		h.file.Seek(0, io.SeekStart) //nolint:errcheck
		return h.file
	}
	return bytes.NewReader(h.data)
}

// prepare validates the document structure, builds the page reader with
// the authenticated password and selects the processing mode.
func (h *DocumentHandle) prepare(password string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password

	ctx, err := api.ReadContext(h.readSeeker(), conf)
	if err != nil {
		return WrapError(CodeInvalidFormat, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return WrapError(CodeInvalidFormat, err)
	}

	reader, err := h.openReader(password)
	if err != nil {
		return WrapError(CodeInvalidFormat, err)
	}
	h.reader = reader
	h.src = newReaderPageSource(reader)
	h.pageCount = reader.NumPage()
	h.password = password
	h.mode = SelectMode(h.size, h.cfg.MemoryLimitBytes, h.cfg.StreamingThresholdBytes)
	if h.mode.Streaming && h.cfg.ChunkSizeBytes > 0 {
		h.mode.ChunkSize = h.cfg.ChunkSizeBytes
	}
	h.state = StateModeSelected
	return nil
}

func (h *DocumentHandle) openReader(password string) (*pdf.Reader, error) {
	if password == "" && !h.gate.Info().IsEncrypted {
		return pdf.NewReader(h.ra, h.size)
	}
	// The callback is polled until it returns ""; hand the password over
	// exactly once so a rejection cannot loop.
	used := false
	return pdf.NewReaderEncrypted(h.ra, h.size, func() string {
		if used {
			return ""
		}
		used = true
		return password
	})
}

// State returns the current lifecycle state.
func (h *DocumentHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Mode returns the selected processing mode. Zero until authenticated.
func (h *DocumentHandle) Mode() Mode {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mode
}

// CheckEncryption reports the document's encryption state. Idempotent;
// detection ran at open time.
func (h *DocumentHandle) CheckEncryption() security.Info {
	return h.gate.Info()
}

// Strategy grades how extracted content may be used under the document's
// permission bits.
func (h *DocumentHandle) Strategy() security.ExtractionStrategy {
	return h.gate.Strategy()
}

// TryCommonPasswords attempts candidates in order, falling back to the
// builtin list when nil. On success the handle becomes ready for
// extraction; when every candidate fails the handle is terminally
// AuthFailed and content operations return EncryptedUnauthorized.
func (h *DocumentHandle) TryCommonPasswords(candidates []string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.gate.Info().IsEncrypted {
		return "", nil
	}
	switch h.state {
	case StateAuthFailed:
		return "", NewError(CodeEncryptedUnauthorized)
	case StateOpened:
	default:
		return h.password, nil // already authenticated
	}

	tried := len(candidates)
	if candidates == nil {
		tried = len(security.CommonPasswords())
	}
	pw, ok := h.gate.Authenticate(candidates)
	if !ok {
		h.state = StateAuthFailed
		h.logger.Printf("authentication failed for %s after %d candidates", h.name(), tried)
		return "", NewError(CodeEncryptedUnauthorized)
	}
	if err := h.prepare(pw); err != nil {
		h.state = StateAuthFailed
		return "", err
	}
	return pw, nil
}

// Metadata returns document-level information. Available in every state;
// for documents that never authenticated the page count is a best-effort
// raw scan and Info-dictionary fields stay empty.
func (h *DocumentHandle) Metadata() (*Metadata, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	info := h.gate.Info()
	m := &Metadata{
		FileSizeBytes: h.size,
		Version:       h.version,
		Encrypted:     info.IsEncrypted,
		Security:      &info,
	}
	if h.reader != nil {
		m.PageCount = h.pageCount
		m.readInfoDict(h.reader)
		return m, nil
	}
	data, err := h.readAll()
	if err != nil {
		return m, WrapError(CodeCorruptedStream, err)
	}
	m.PageCount = scanPageCount(data)
	return m, nil
}

// UseBudget replaces the handle's memory budget with a shared one, so a
// batch of documents draws from a single limit.
func (h *DocumentHandle) UseBudget(b *streaming.Budget) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.budget = b
}

// SetOCREngine injects the OCR engine used by RecognizeImage. Defaults
// to the no-op engine.
func (h *DocumentHandle) SetOCREngine(e ocr.Engine) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e != nil {
		h.engine = e
	}
}

// name identifies the document in log lines.
func (h *DocumentHandle) name() string {
	if h.path != "" {
		return h.path
	}
	return fmt.Sprintf("<%d bytes>", h.size)
}

// Close releases the underlying file. The cached extraction result stays
// readable.
func (h *DocumentHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reader = nil
	if h.file != nil {
		err := h.file.Close()
		h.file = nil
		return err
	}
	return nil
}
