package extract

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doxkit/pdfextract/internal/extract/security"
)

// encryptedDoc renders a minimal byte image carrying an encryption
// dictionary whose O/U values match no password.
func encryptedDoc() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.6\n")
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R >>\nendobj\n")
	fmt.Fprintf(&buf,
		"5 0 obj\n<< /Filter /Standard /V 2 /R 3 /Length 40 /P -3904 /O <%064X> /U <%064X> >>\nendobj\n",
		1, 2)
	buf.WriteString("trailer\n<< /Size 10 /Root 1 0 R /Encrypt 5 0 R")
	buf.WriteString(" /ID [<0123456789ABCDEFFEDCBA9876543210> <0123456789ABCDEFFEDCBA9876543210>] >>\n")
	buf.WriteString("startxref\n0\n%%EOF\n")
	return buf.Bytes()
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open("/nonexistent/file.pdf", nil)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidFormat, CodeOf(err))
}

func TestOpenBytesNotAPDF(t *testing.T) {
	_, err := OpenBytes([]byte("plain text, no header"), nil)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidFormat, CodeOf(err))
}

func TestOpenBytesEncryptedAwaitsPassword(t *testing.T) {
	h, err := OpenBytes(encryptedDoc(), nil)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, StateOpened, h.State())

	info := h.CheckEncryption()
	assert.True(t, info.IsEncrypted)
	assert.False(t, info.Authenticated)
	assert.Equal(t, "RC4", info.Algorithm)
	assert.False(t, info.Permissions.Print)

	_, err = h.GetText(context.Background())
	require.Error(t, err)
	assert.Equal(t, CodeEncryptedUnauthorized, CodeOf(err))
}

func TestAuthFailureIsTerminal(t *testing.T) {
	h, err := OpenBytes(encryptedDoc(), nil)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.TryCommonPasswords(nil)
	require.Error(t, err)
	assert.Equal(t, CodeEncryptedUnauthorized, CodeOf(err))
	assert.Equal(t, StateAuthFailed, h.State())

	// Later attempts fail without retrying candidates.
	_, err = h.TryCommonPasswords([]string{"another"})
	require.Error(t, err)
	assert.Equal(t, StateAuthFailed, h.State())

	_, err = h.ExtractTables(context.Background())
	require.Error(t, err)
	assert.Equal(t, CodeEncryptedUnauthorized, CodeOf(err))
}

func TestMetadataAvailableAfterAuthFailure(t *testing.T) {
	doc := encryptedDoc()
	h, err := OpenBytes(doc, nil)
	require.NoError(t, err)
	defer h.Close()

	_, _ = h.TryCommonPasswords(nil)
	require.Equal(t, StateAuthFailed, h.State())

	m, err := h.Metadata()
	require.NoError(t, err)
	assert.True(t, m.Encrypted)
	assert.Equal(t, "1.6", m.Version)
	assert.Equal(t, int64(len(doc)), m.FileSizeBytes)
	assert.Equal(t, 1, m.PageCount)
	require.NotNil(t, m.Security)
	assert.Equal(t, security.LevelHigh, m.Security.Level)
}

func TestStateStrings(t *testing.T) {
	names := map[State]string{
		StateUnopened:        "unopened",
		StateOpened:          "opened",
		StateAuthFailed:      "auth_failed",
		StateModeSelected:    "mode_selected",
		StateExtracting:      "extracting",
		StateCompleted:       "completed",
		StatePartiallyFailed: "partially_failed",
		State(99):            "unknown",
	}
	for state, want := range names {
		assert.Equal(t, want, state.String())
	}
}
