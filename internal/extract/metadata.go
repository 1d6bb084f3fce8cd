package extract

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/doxkit/pdfextract/internal/extract/security"
)

// Metadata is the document-level information block. String fields are
// empty when the document does not carry them.
type Metadata struct {
	Title         string         `json:"title,omitempty"`
	Author        string         `json:"author,omitempty"`
	Subject       string         `json:"subject,omitempty"`
	Creator       string         `json:"creator,omitempty"`
	Producer      string         `json:"producer,omitempty"`
	CreationDate  *time.Time     `json:"creation_date,omitempty"`
	ModifiedDate  *time.Time     `json:"modified_date,omitempty"`
	PageCount     int            `json:"page_count"`
	FileSizeBytes int64          `json:"file_size_bytes"`
	Version       string         `json:"version,omitempty"`
	Encrypted     bool           `json:"encrypted"`
	Security      *security.Info `json:"security,omitempty"`
}

// readInfoDict fills string metadata from the document's Info dictionary.
// ledongthuc panics on some malformed Value chains, so the walk is fenced.
func (m *Metadata) readInfoDict(r *pdf.Reader) {
	defer func() {
		// Keep whatever was read before a panic in the Value walk.
		_ = recover()
	}()

	trailer := r.Trailer()
	if trailer.IsNull() {
		return
	}
	info := trailer.Key("Info")
	if info.IsNull() {
		return
	}

	read := func(key string) string {
		v := info.Key(key)
		if v.IsNull() {
			return ""
		}
		return strings.TrimSpace(v.Text())
	}

	m.Title = read("Title")
	m.Author = read("Author")
	m.Subject = read("Subject")
	m.Creator = read("Creator")
	m.Producer = read("Producer")

	if t, ok := parsePDFDate(read("CreationDate")); ok {
		m.CreationDate = &t
	}
	if t, ok := parsePDFDate(read("ModDate")); ok {
		m.ModifiedDate = &t
	}
}

// parsePDFDate parses the PDF date format D:YYYYMMDDHHmmSSOHH'mm'. Every
// field after the year is optional; a missing timezone is rendered as
// UTC for determinism.
func parsePDFDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "D:")
	if len(s) < 4 {
		return time.Time{}, false
	}

	digits := func(off, n, def int) int {
		if len(s) < off+n {
			return def
		}
		val := 0
		for _, c := range s[off : off+n] {
			if c < '0' || c > '9' {
				return def
			}
			val = val*10 + int(c-'0')
		}
		return val
	}

	year := digits(0, 4, -1)
	if year < 0 {
		return time.Time{}, false
	}
	month := digits(4, 2, 1)
	day := digits(6, 2, 1)
	hour := digits(8, 2, 0)
	minute := digits(10, 2, 0)
	second := digits(12, 2, 0)

	if month < 1 || month > 12 || day < 1 || day > 31 ||
		hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	loc := time.UTC
	if len(s) > 14 {
		switch s[14] {
		case 'Z':
			// UTC, offset fields (if present) are zero
		case '+', '-':
			oh := digits(15, 2, 0)
			om := digits(18, 2, 0) // skips the quote after HH
			offset := (oh*60 + om) * 60
			if s[14] == '-' {
				offset = -offset
			}
			loc = time.FixedZone("", offset)
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc), true
}

// scanVersion reads the %PDF-N.N header from the raw bytes.
func scanVersion(head []byte) string {
	const marker = "%PDF-"
	i := bytes.Index(head, []byte(marker))
	if i < 0 || len(head) < i+len(marker)+3 {
		return ""
	}
	v := head[i+len(marker) : i+len(marker)+3]
	if v[0] < '1' || v[0] > '9' || v[1] != '.' || v[2] < '0' || v[2] > '9' {
		return ""
	}
	return string(v)
}

var pageObjPattern = regexp.MustCompile(`/Type\s*/Page[^s]`)

// scanPageCount counts page objects in the raw bytes. Best effort for
// documents that cannot be opened (wrong password); pages held in
// compressed object streams are invisible to this scan.
func scanPageCount(data []byte) int {
	return len(pageObjPattern.FindAll(data, -1))
}
