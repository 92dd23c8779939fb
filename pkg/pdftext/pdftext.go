// Package pdftext provides best-effort text extraction from PDF
// attachments. Extraction never fails a caller: a PDF that cannot be
// parsed yields an unsuccessful result and classification proceeds on
// the remaining signals.
package pdftext

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Result carries the outcome of one extraction attempt.
type Result struct {
	Success    bool   `json:"success"`
	Text       string `json:"text"`
	PageCount  int    `json:"page_count"`
	Confidence int    `json:"confidence"`
	Method     string `json:"method"`
}

const methodContentStream = "content_stream"

// Extractor pulls text out of PDF content streams.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor with the given logger.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With("component", "pdftext")}
}

// Extract decodes the text content of a PDF. Scanned documents without a
// text layer come back unsuccessful rather than as an error.
func (e *Extractor) Extract(data []byte) Result {
	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.EXTRACTCONTENT

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		e.logger.Warn("unreadable pdf", "error", err)
		return Result{Method: methodContentStream}
	}
	pages := ctx.PageCount

	var sb strings.Builder
	for page := 1; page <= pages; page++ {
		r, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil {
			e.logger.Warn("content extraction failed", "page", page, "error", err)
			continue
		}
		if r == nil {
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		if text := decodeContent(stream); text != "" {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Result{PageCount: pages, Method: methodContentStream}
	}

	return Result{
		Success:    true,
		Text:       text,
		PageCount:  pages,
		Confidence: textConfidence(text),
		Method:     methodContentStream,
	}
}

// textConfidence scores extracted text by the share of printable ASCII.
// Encrypted or exotically encoded fonts decode into garbage that drags
// the ratio down.
func textConfidence(text string) int {
	printable := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\n' || (c >= 0x20 && c < 0x7f) {
			printable++
		}
	}
	ratio := float64(printable) / float64(len(text))

	switch {
	case ratio > 0.97:
		return 90
	case ratio > 0.9:
		return 75
	case ratio > 0.75:
		return 55
	default:
		return 30
	}
}
