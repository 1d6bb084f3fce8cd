package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// OOXML documents are ZIP archives; each family keeps its text in a
// different set of XML parts. The providers below stream those parts
// through encoding/xml and collect character data from the text tags.

type wordProvider struct{}

func (wordProvider) Format() Format { return FormatWord }

// ExtractText reads word/document.xml. Text lives in <w:t> runs;
// paragraph ends become newlines.
func (wordProvider) ExtractText(ctx context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()
		return collectText(rc, "t", "p"), nil
	}
	return "", fmt.Errorf("%s: word/document.xml not found", path)
}

type powerPointProvider struct{}

func (powerPointProvider) Format() Format { return FormatPowerPoint }

// ExtractText reads every ppt/slides/slide*.xml part. Text lives in
// <a:t> runs; each slide becomes one line-separated section.
func (powerPointProvider) ExtractText(ctx context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer zr.Close()

	var sb strings.Builder
	found := false
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		text := collectText(rc, "t", "")
		rc.Close()
		found = true
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	if !found {
		return "", fmt.Errorf("%s: no slide parts found", path)
	}
	return sb.String(), nil
}

type excelProvider struct{}

func (excelProvider) Format() Format { return FormatExcel }

// ExtractText reads the shared string table and the per-sheet cell
// values. Formulas contribute their cached results only.
func (excelProvider) ExtractText(ctx context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer zr.Close()

	var sb strings.Builder
	for _, f := range zr.File {
		var tag string
		switch {
		case f.Name == "xl/sharedStrings.xml":
			tag = "t"
		case strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml"):
			tag = "v"
		default:
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		sb.WriteString(collectText(rc, tag, ""))
		rc.Close()
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%s: no worksheet content found", path)
	}
	return sb.String(), nil
}

// collectText walks an XML part and gathers character data inside
// textTag elements, joined with spaces. A non-empty breakTag emits a
// newline when that element closes.
func collectText(r io.Reader, textTag, breakTag string) string {
	var sb strings.Builder
	dec := xml.NewDecoder(r)
	inText := false

	for {
		tok, err := dec.Token()
		if err != nil {
			break // io.EOF or malformed tail; keep what was read
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textTag {
				inText = true
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
				sb.WriteString(" ")
			}
		case xml.EndElement:
			if t.Name.Local == textTag {
				inText = false
			}
			if breakTag != "" && t.Name.Local == breakTag {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}
