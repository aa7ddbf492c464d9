package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/realmath/problempipeline/internal/console"
	"github.com/realmath/problempipeline/internal/gcp"
	"github.com/realmath/problempipeline/internal/report"
	"github.com/realmath/problempipeline/internal/services"
)

type tagOptions struct {
	in       string
	out      string
	year     string
	examType string
}

func newTagCmd(a *app) *cobra.Command {
	var opts tagOptions

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Classify extracted problems into curriculum units",
		Long: `Reads an extracted problems CSV, asks a Gemini model on Vertex AI for the
unit (대분류) of every numbered problem and writes a tagged CSV with the exam
year and type attached.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.in == "" {
				opts.in = a.cfg.OutputPath
			}
			if opts.out == "" {
				opts.out = a.cfg.TaggedPath
			}
			if err := a.cfg.RequireProject(); err != nil {
				return err
			}

			ctx := cmd.Context()
			vertexClient, err := gcp.NewVertexClient(ctx, a.cfg.ProjectID, a.cfg.VertexRegion, a.cfg.VertexModel, a.cfg.Categories)
			if err != nil {
				return fmt.Errorf("failed to create vertex client: %w", err)
			}
			defer vertexClient.Close()

			classifier := services.NewVertexClassifier(vertexClient, a.cfg.Categories)
			return runTag(ctx, cmd.OutOrStdout(), classifier, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.in, "in", "i", "", "Extracted problems CSV (default from config output_path)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Tagged CSV path (default from config tagged_path)")
	cmd.Flags().StringVar(&opts.year, "year", "", "Exam year, e.g. 2024 (required)")
	cmd.Flags().StringVar(&opts.examType, "exam-type", "", "Exam type, e.g. 수능 or 6월 모의평가 (required)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("exam-type")
	return cmd
}

func runTag(ctx context.Context, w io.Writer, classifier services.Classifier, opts tagOptions) error {
	in, err := os.Open(opts.in)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.in, err)
	}
	defer in.Close()

	records, err := report.ReadProblems(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.in, err)
	}

	out, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.out, err)
	}
	defer out.Close()

	tw := report.NewTaggedWriter(out)
	stats, err := services.NewTagger(classifier).Tag(ctx, records, opts.year, opts.examType, tw.Write)
	if err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}

	console.FormatSummary(w, "TAGGING COMPLETE", []console.Row{
		console.Count("Tagged", stats.Tagged, console.Good),
		console.Count("Failed", stats.Failed, console.Bad),
		console.Count("Untagged", stats.Skipped, console.Plain),
		{Label: "Output", Value: opts.out},
	})
	return nil
}
