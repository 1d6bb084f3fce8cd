package extract

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeStrings(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{CodeUnknown, "UNKNOWN"},
		{CodeInvalidFormat, "INVALID_FORMAT"},
		{CodeEncryptedUnauthorized, "ENCRYPTED_UNAUTHORIZED"},
		{CodeCorruptedStream, "CORRUPTED_STREAM"},
		{CodeMemoryLimitExceeded, "MEMORY_LIMIT_EXCEEDED"},
		{CodeOcrUnavailable, "OCR_UNAVAILABLE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.String())
	}
}

func TestErrorCodeFatal(t *testing.T) {
	assert.True(t, CodeInvalidFormat.Fatal())
	assert.True(t, CodeEncryptedUnauthorized.Fatal())
	assert.False(t, CodeCorruptedStream.Fatal())
	assert.False(t, CodeMemoryLimitExceeded.Fatal())
	assert.False(t, CodeOcrUnavailable.Fatal())
	assert.False(t, CodeUnknown.Fatal())
}

func TestExtractErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("truncated xref")
	err := WrapError(CodeCorruptedStream, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "CORRUPTED_STREAM")
	assert.Contains(t, err.Error(), "truncated xref")
	assert.Equal(t, CodeCorruptedStream, CodeOf(err))
}

func TestExtractErrorIsMatchesByCode(t *testing.T) {
	err := NewError(CodeMemoryLimitExceeded)
	assert.True(t, errors.Is(err, &ExtractError{Code: CodeMemoryLimitExceeded}))
	assert.False(t, errors.Is(err, &ExtractError{Code: CodeInvalidFormat}))
}

func TestPageErrorCarriesPage(t *testing.T) {
	err := PageError(CodeCorruptedStream, 7, fmt.Errorf("bad stream"))
	assert.Equal(t, 7, err.Page)

	wrapped := fmt.Errorf("page 7: %w", err)
	assert.Equal(t, CodeCorruptedStream, CodeOf(wrapped))
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, CodeUnknown, CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
}
