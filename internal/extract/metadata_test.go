package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			"full with positive offset",
			"D:20240315142530+02'00'",
			time.Date(2024, 3, 15, 14, 25, 30, 0, time.FixedZone("", 2*3600)),
			true,
		},
		{
			"full with negative offset",
			"D:19990101000000-08'00'",
			time.Date(1999, 1, 1, 0, 0, 0, 0, time.FixedZone("", -8*3600)),
			true,
		},
		{
			"utc marker",
			"D:20200229120000Z",
			time.Date(2020, 2, 29, 12, 0, 0, 0, time.UTC),
			true,
		},
		{
			"date only",
			"D:20230704",
			time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"year only",
			"D:2023",
			time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"missing prefix",
			"20230704120000",
			time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC),
			true,
		},
		{"empty", "", time.Time{}, false},
		{"too short", "D:20", time.Time{}, false},
		{"garbage", "D:notadate", time.Time{}, false},
		{"month out of range", "D:20231304", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePDFDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestScanVersion(t *testing.T) {
	assert.Equal(t, "1.7", scanVersion([]byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")))
	assert.Equal(t, "2.0", scanVersion([]byte("%PDF-2.0\n")))
	assert.Equal(t, "", scanVersion([]byte("not a pdf")))
	assert.Equal(t, "", scanVersion([]byte("%PDF-")))
	assert.Equal(t, "", scanVersion(nil))
}

func TestScanPageCount(t *testing.T) {
	doc := []byte(`
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Count 2 /Kids [3 0 R 4 0 R] >> endobj
3 0 obj << /Type /Page /Parent 2 0 R >> endobj
4 0 obj << /Type/Page /Parent 2 0 R >> endobj
`)
	assert.Equal(t, 2, scanPageCount(doc))
	assert.Equal(t, 0, scanPageCount([]byte("<< /Type /Pages >>")))
	assert.Equal(t, 0, scanPageCount(nil))
}
