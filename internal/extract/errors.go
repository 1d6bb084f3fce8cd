package extract

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes extraction failures. Codes drive both propagation
// policy (fatal vs. partial-result) and the user-facing message.
type ErrorCode int

const (
	// CodeUnknown covers failures that do not fit any other category.
	CodeUnknown ErrorCode = iota

	// CodeInvalidFormat indicates an unparsable document structure.
	// Fatal for the file; no partial result is available.
	CodeInvalidFormat

	// CodeEncryptedUnauthorized indicates no candidate password succeeded.
	// Content extraction is fatal; metadata is still returned.
	CodeEncryptedUnauthorized

	// CodeCorruptedStream indicates a mid-document I/O or parse failure.
	// A partial result accompanies the error.
	CodeCorruptedStream

	// CodeMemoryLimitExceeded indicates the streaming safety check tripped.
	// Extraction aborts with a partial result.
	CodeMemoryLimitExceeded

	// CodeOcrUnavailable indicates no OCR engine is configured. Advisory
	// only; it never blocks text extraction.
	CodeOcrUnavailable
)

// String returns the wire identifier for the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeInvalidFormat:
		return "INVALID_FORMAT"
	case CodeEncryptedUnauthorized:
		return "ENCRYPTED_UNAUTHORIZED"
	case CodeCorruptedStream:
		return "CORRUPTED_STREAM"
	case CodeMemoryLimitExceeded:
		return "MEMORY_LIMIT_EXCEEDED"
	case CodeOcrUnavailable:
		return "OCR_UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// userMessage maps each code to an actionable message.
func (c ErrorCode) userMessage() string {
	switch c {
	case CodeInvalidFormat:
		return "the file is not a valid PDF document"
	case CodeEncryptedUnauthorized:
		return "the document requires a password"
	case CodeCorruptedStream:
		return "the document is damaged; extracted content may be incomplete"
	case CodeMemoryLimitExceeded:
		return "the file is too large for the available memory; raise the memory limit or lower the chunk size"
	case CodeOcrUnavailable:
		return "no OCR engine is configured; image-only pages cannot be converted to text"
	default:
		return "extraction failed"
	}
}

// Fatal reports whether the code aborts content extraction for the file.
// Per-document errors never abort sibling documents in a batch.
func (c ErrorCode) Fatal() bool {
	switch c {
	case CodeInvalidFormat, CodeEncryptedUnauthorized:
		return true
	default:
		return false
	}
}

// ExtractError is the error type returned by all extraction operations.
// It carries the taxonomy code, optional page context and a wrapped cause.
type ExtractError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Page    int       `json:"page,omitempty"` // 0-based, -1 when not page-scoped
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.userMessage()
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the wrapped cause, if any.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Is matches against another *ExtractError by code, so callers can use
// errors.Is(err, &ExtractError{Code: CodeInvalidFormat}).
func (e *ExtractError) Is(target error) bool {
	var t *ExtractError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError creates an ExtractError with the code's default message.
func NewError(code ErrorCode) *ExtractError {
	return &ExtractError{Code: code, Message: code.userMessage(), Page: -1}
}

// WrapError creates an ExtractError wrapping an underlying cause.
func WrapError(code ErrorCode, err error) *ExtractError {
	return &ExtractError{Code: code, Message: code.userMessage(), Page: -1, Err: err}
}

// PageError creates an ExtractError scoped to a specific 0-based page.
func PageError(code ErrorCode, page int, err error) *ExtractError {
	return &ExtractError{Code: code, Message: code.userMessage(), Page: page, Err: err}
}

// CodeOf extracts the taxonomy code from any error, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *ExtractError
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
