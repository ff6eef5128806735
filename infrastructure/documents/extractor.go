// Package documents turns uploaded files into plain text and stores the
// original bytes on disk.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/ledongthuc/pdf"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"pathfinder-backend/application/ports"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrTooLarge          = errors.New("document exceeds size limit")
	ErrNotText           = errors.New("document is not valid UTF-8 text")
)

// Format is a document kind the extractor understands
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// blocks whose text becomes one line each
const blockSelector = "h1,h2,h3,h4,h5,h6,p,li,pre,blockquote,td,th,dt,dd"

// Extractor implements ports.TextExtractor
type Extractor struct {
	maxBytes int64
	policy   *bluemonday.Policy
	logger   *zap.Logger
}

var _ ports.TextExtractor = (*Extractor)(nil)

// NewExtractor creates an extractor that rejects inputs over maxBytes
func NewExtractor(maxBytes int64, logger *zap.Logger) *Extractor {
	return &Extractor{
		maxBytes: maxBytes,
		policy:   bluemonday.UGCPolicy(),
		logger:   logger,
	}
}

// DetectFormat picks a format from the content type, falling back to the
// file extension
func DetectFormat(filename, contentType string) (Format, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "application/pdf":
			return FormatPDF, nil
		case "text/html", "application/xhtml+xml":
			return FormatHTML, nil
		case "text/markdown", "text/x-markdown":
			return FormatMarkdown, nil
		case "text/plain":
			// browsers label .md files text/plain
			if isMarkdownExt(filename) {
				return FormatMarkdown, nil
			}
			return FormatText, nil
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".html", ".htm", ".xhtml":
		return FormatHTML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".txt", ".text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filename, contentType)
}

func isMarkdownExt(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown"
}

// Extract reads r fully and returns its text content
func (e *Extractor) Extract(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	format, err := DetectFormat(filename, contentType)
	if err != nil {
		return "", err
	}

	data, err := e.readLimited(r)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatHTML:
		text, err = e.extractHTML(data)
	case FormatMarkdown:
		text, err = e.extractMarkdown(data)
	case FormatText:
		if !utf8.Valid(data) {
			return "", ErrNotText
		}
		text = string(data)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}

	text = normalizeWhitespace(text)
	e.logger.Debug("Text extracted",
		zap.String("filename", filename),
		zap.String("format", string(format)),
		zap.Int("bytes", len(data)),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

func (e *Extractor) readLimited(r io.Reader) ([]byte, error) {
	if e.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, e.maxBytes)
	}
	return data, nil
}

func extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (e *Extractor) extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(e.policy.SanitizeBytes(data)))
	if err != nil {
		return "", err
	}

	var lines []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// nested blocks are emitted by their innermost element
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		if line := strings.Join(strings.Fields(s.Text()), " "); line != "" {
			lines = append(lines, line)
		}
	})
	if len(lines) == 0 {
		return doc.Text(), nil
	}
	return strings.Join(lines, "\n"), nil
}

func (e *Extractor) extractMarkdown(data []byte) (string, error) {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return e.extractHTML(markdown.ToHTML(data, p, renderer))
}

// normalizeWhitespace trims every line, collapses runs of spaces and drops
// empty lines
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
