// Package textract turns safety data sheet files into plain text.
//
// PDFs go through the external pdftotext binary; .txt files are read
// directly. Output is decoded (BOM stripped, Windows-1252 fallback) and
// NFKC-normalized so ligatures such as "ﬂ" compare as plain letters.
package textract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"sdsscan/internal/textutil"
)

var commandContext = exec.CommandContext

// Extractor returns the text body of a document.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// PDFToText shells out to pdftotext.
type PDFToText struct {
	binary string
}

// NewPDFToText returns an extractor using binary (default "pdftotext").
func NewPDFToText(binary string) *PDFToText {
	if strings.TrimSpace(binary) == "" {
		binary = "pdftotext"
	}
	return &PDFToText{binary: binary}
}

func (p *PDFToText) Extract(ctx context.Context, path string) (string, error) {
	cmd := commandContext(ctx, p.binary, "-enc", "UTF-8", "-layout", path, "-") //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("pdftotext %s: %w", filepath.Base(path), ctxErr)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("pdftotext %s: %w: %s", filepath.Base(path), err, detail)
		}
		return "", fmt.Errorf("pdftotext %s: %w", filepath.Base(path), err)
	}
	return Clean(stdout.Bytes()), nil
}

// PlainText reads the file as is.
type PlainText struct{}

func (PlainText) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return Clean(data), nil
}

// ErrUnsupported is returned for extensions with no registered extractor.
var ErrUnsupported = errors.New("unsupported document type")

// Dispatch picks an extractor by lowercase file extension.
type Dispatch map[string]Extractor

// NewDispatch returns the default table: pdftotext for .pdf, direct read for .txt.
func NewDispatch(pdfBinary string) Dispatch {
	return Dispatch{
		".pdf": NewPDFToText(pdfBinary),
		".txt": PlainText{},
	}
}

func (d Dispatch) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := d[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return extractor.Extract(ctx, path)
}

// Clean decodes raw extractor output and applies NFKC normalization. Form
// feeds between pages become newlines.
func Clean(raw []byte) string {
	text, _ := textutil.DecodeLegacy(raw)
	text = strings.ReplaceAll(text, "\f", "\n")
	return norm.NFKC.String(text)
}
