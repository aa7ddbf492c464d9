// Package pdftext turns a PDF into per-page lines of text.
package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/unicode/norm"

	"github.com/realmath/problempipeline/internal/models"
)

// Extractor reads page text from PDF files on local disk.
type Extractor struct {
	// SkipValidation disables the pdfcpu preflight check.
	SkipValidation bool
}

// PageCount validates path in relaxed mode and returns its page count. An
// error here means the document cannot be processed at all.
func (e *Extractor) PageCount(path string) (int, error) {
	if !e.SkipValidation {
		cfg := model.NewDefaultConfiguration()
		cfg.ValidationMode = model.ValidationRelaxed
		if err := api.ValidateFile(path, cfg); err != nil {
			return 0, fmt.Errorf("failed to validate PDF %s: %w", path, err)
		}
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count of %s: %w", path, err)
	}
	return n, nil
}

// Pages extracts every page of the PDF at path in reading order. Pages whose
// text cannot be decoded are logged and returned empty so page numbering
// stays aligned with the document.
func (e *Extractor) Pages(ctx context.Context, path, source string) ([]models.PageText, error) {
	if _, err := e.PageCount(path); err != nil {
		return nil, err
	}

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	logCtx := slog.With("source", source)
	numPages := reader.NumPage()
	pages := make([]models.PageText, 0, numPages)

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var text string
		page := reader.Page(i)
		if page.V.IsNull() {
			logCtx.Warn("Page has no content object; treating as empty.", "page", i)
		} else if text, err = page.GetPlainText(nil); err != nil {
			logCtx.Warn("Could not extract page text; treating as empty.", "page", i, "error", err)
			text = ""
		}

		pages = append(pages, PageFromText(source, i, text))
		if i%10 == 0 {
			logCtx.Info("Extracted pages.", "done", i, "total", numPages)
		}
	}
	return pages, nil
}

// PageFromText builds a PageText from already extracted text. The text is
// NFC-normalized and split on newlines; CRLF and lone CR are treated as LF.
func PageFromText(source string, index int, text string) models.PageText {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return models.PageText{
		Source: source,
		Index:  index,
		Lines:  strings.Split(text, "\n"),
	}
}
