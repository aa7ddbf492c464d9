package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/realmath/problempipeline/internal/analysis"
	"github.com/realmath/problempipeline/internal/gcp"
	"github.com/realmath/problempipeline/internal/models"
	"github.com/realmath/problempipeline/internal/report"
	"github.com/realmath/problempipeline/internal/services"
)

type analyzeOptions struct {
	in    string
	gcs   string
	html  string
	title string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report the category distribution of tagged problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.gcs != "" {
				return a.analyzeBucket(cmd.Context(), cmd.OutOrStdout(), opts)
			}
			if opts.in == "" {
				opts.in = a.cfg.TaggedPath
			}
			return runAnalyze(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.in, "in", "i", "", "Tagged CSV (default from config tagged_path)")
	cmd.Flags().StringVar(&opts.gcs, "gcs", "", "Aggregate every *_tagged.csv under this gs://bucket/prefix instead of --in")
	cmd.Flags().StringVar(&opts.html, "html", "", "Also write the report as HTML to this path")
	cmd.Flags().StringVar(&opts.title, "title", "수능 수학 대분류별 출제 비중", "Report title")
	cmd.MarkFlagsMutuallyExclusive("in", "gcs")
	return cmd
}

func (a *app) analyzeBucket(ctx context.Context, w io.Writer, opts analyzeOptions) error {
	bucket, prefix, err := gcp.ParseGCSPrefix(opts.gcs)
	if err != nil {
		return err
	}
	client, err := gcp.NewStorageClient(ctx, a.cfg.CredentialsFile)
	if err != nil {
		return err
	}
	defer client.Close()

	problems, err := services.NewAggregator(services.GCSObjectSource{Client: client}).Aggregate(ctx, bucket, prefix)
	if err != nil {
		return err
	}
	return writeAnalysis(w, problems, opts)
}

func runAnalyze(w io.Writer, opts analyzeOptions) error {
	f, err := os.Open(opts.in)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.in, err)
	}
	defer f.Close()

	problems, err := report.ReadTagged(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.in, err)
	}
	return writeAnalysis(w, problems, opts)
}

func writeAnalysis(w io.Writer, problems []models.TaggedProblem, opts analyzeOptions) error {
	d := analysis.Analyze(problems)
	fmt.Fprint(w, d.Markdown(opts.title))

	if opts.html != "" {
		html, err := d.HTML(opts.title)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.html, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.html, err)
		}
	}
	return nil
}
