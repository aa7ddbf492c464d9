package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/realmath/problempipeline/internal/console"
	"github.com/realmath/problempipeline/internal/models"
	"github.com/realmath/problempipeline/internal/pdftext"
	"github.com/realmath/problempipeline/internal/report"
	"github.com/realmath/problempipeline/internal/segmenter"
)

type extractOptions struct {
	out        string
	xlsx       string
	withSource bool
}

func newExtractCmd(a *app) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract PDF...",
		Short: "Segment exam PDFs into a problems CSV",
		Long: `Extracts the text of each PDF page, splits it into numbered problems and
writes one CSV row per problem block. Missing or unreadable PDFs are reported
and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.out == "" {
				opts.out = a.cfg.OutputPath
			}
			return runExtract(cmd.Context(), cmd.OutOrStdout(), &pdftext.Extractor{}, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output CSV path (default from config output_path)")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "Also write a review workbook to this path")
	cmd.Flags().BoolVar(&opts.withSource, "with-source", false, "Always include the source file column")
	return cmd
}

// pageSource yields the pages of one document.
type pageSource interface {
	Pages(ctx context.Context, path, source string) ([]models.PageText, error)
}

type extractSummary struct {
	processed int
	skipped   int
	records   int
}

func runExtract(ctx context.Context, w io.Writer, src pageSource, paths []string, opts extractOptions) error {
	withSource := opts.withSource || len(paths) > 1

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.out, err)
	}
	defer f.Close()

	pw := report.NewProblemWriter(f, withSource)
	var all []models.ProblemRecord
	var writeErr error
	var summary extractSummary

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		source := filepath.Base(path)
		if _, err := os.Stat(path); err != nil {
			console.FormatResult(w, false, fmt.Sprintf("File not found: %s", path))
			summary.skipped++
			continue
		}

		pages, err := src.Pages(ctx, path, source)
		if err != nil {
			slog.Error("Failed to read PDF", "path", path, "error", err)
			console.FormatResult(w, false, fmt.Sprintf("Could not read %s: %v", path, err))
			summary.skipped++
			continue
		}

		n := 0
		seg := segmenter.New(source, func(r models.ProblemRecord) {
			if writeErr != nil {
				return
			}
			if writeErr = pw.Write(r); writeErr != nil {
				return
			}
			n++
			if opts.xlsx != "" {
				all = append(all, r)
			}
		})
		for _, p := range pages {
			seg.Page(p)
		}
		if writeErr != nil {
			return fmt.Errorf("failed to write %s: %w", opts.out, writeErr)
		}

		summary.processed++
		summary.records += n
		console.FormatResult(w, true, fmt.Sprintf("%s: %d pages, %d problem blocks", source, len(pages), n))
	}

	if err := pw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}

	if opts.xlsx != "" {
		if err := report.WriteWorkbook(opts.xlsx, all, withSource); err != nil {
			return err
		}
	}

	rows := []console.Row{
		console.Count("Documents", summary.processed, console.Good),
		console.Count("Skipped", summary.skipped, console.Bad),
		console.Count("Problem blocks", summary.records, console.Plain),
		{Label: "CSV", Value: opts.out},
	}
	if opts.xlsx != "" {
		rows = append(rows, console.Row{Label: "Workbook", Value: opts.xlsx})
	}
	console.FormatSummary(w, "EXTRACTION COMPLETE", rows)

	if summary.processed == 0 {
		return errors.New("no documents could be extracted")
	}
	return nil
}
