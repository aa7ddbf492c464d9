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
	"github.com/realmath/problempipeline/internal/services"
)

func newProblemsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problems",
		Short: "Publish and maintain problems in Firestore",
	}
	cmd.AddCommand(
		newProblemsUploadCmd(a),
		newProblemsRemoveFieldCmd(a),
	)
	return cmd
}

type uploadOptions struct {
	all    bool
	file   string
	week   string
	dryRun bool
}

func newProblemsUploadCmd(a *app) *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload generated problems to Firestore",
		Example: `  mathpipe problems upload --all
  mathpipe problems upload --file p_20251117.json
  mathpipe problems upload --week 20251201 --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := selectProblemFiles(a.cfg.ProblemsDir, opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			console.FormatHeader(w, "Firebase Problem Uploader")
			if len(files) == 0 {
				console.FormatNote(w, "No problem files found to upload.")
				return nil
			}
			console.FormatNote(w, fmt.Sprintf("Found %d problem(s) to upload", len(files)))

			ctx := cmd.Context()
			var store services.ProblemStore
			if !opts.dryRun {
				client, err := a.firestoreClient(ctx)
				if err != nil {
					return err
				}
				defer client.Close()
				store = services.NewFirestoreProblemStore(client, a.cfg.ProblemsCollection)
			}

			return runProblemsUpload(ctx, w, services.NewProblemUploader(store), files, opts.dryRun)
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "Upload all problems")
	cmd.Flags().StringVar(&opts.file, "file", "", "Upload one problem file from the problems directory")
	cmd.Flags().StringVar(&opts.week, "week", "", "Upload problems dated in the week starting YYYYMMDD")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would be uploaded")
	cmd.MarkFlagsMutuallyExclusive("all", "file", "week")
	cmd.MarkFlagsOneRequired("all", "file", "week")
	return cmd
}

// selectProblemFiles resolves the --all, --file and --week modes.
func selectProblemFiles(dir string, opts uploadOptions) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("problem generator folder not found at %s", dir)
	}

	switch {
	case opts.file != "":
		path := filepath.Join(dir, opts.file)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return []string{path}, nil
	case opts.week != "":
		start, err := services.ParseWeek(opts.week)
		if err != nil {
			return nil, err
		}
		files, err := services.ListProblemFiles(dir)
		if err != nil {
			return nil, err
		}
		return services.SelectWeek(files, start), nil
	case opts.all:
		return services.ListProblemFiles(dir)
	}
	return nil, errors.New("one of --all, --file or --week is required")
}

func runProblemsUpload(ctx context.Context, w io.Writer, uploader *services.ProblemUploader, files []string, dryRun bool) error {
	summary, err := uploader.Upload(ctx, files, dryRun)
	if err != nil {
		return err
	}

	for _, r := range summary.Results {
		switch {
		case r.Err != nil:
			console.FormatResult(w, false, fmt.Sprintf("Error uploading %s: %v", filepath.Base(r.File), r.Err))
		case dryRun:
			console.FormatNote(w, fmt.Sprintf("[DRY RUN] Would upload: %s - %s", r.ProblemID, r.Title))
		default:
			console.FormatResult(w, true, fmt.Sprintf("Uploaded: %s - %s", r.ProblemID, r.Title))
		}
	}

	if dryRun {
		console.FormatSummary(w, "DRY RUN COMPLETE", []console.Row{
			console.Count("Would upload", summary.Succeeded, console.Good),
			console.Count("Invalid", summary.Failed, console.Bad),
		})
		return nil
	}

	console.FormatSummary(w, "UPLOAD COMPLETE", []console.Row{
		console.Count("Success", summary.Succeeded, console.Good),
		console.Count("Failed", summary.Failed, console.Bad),
	})
	if summary.Failed > 0 {
		slog.Warn("Some problems failed to upload", "failed", summary.Failed, "total", len(files))
	}
	return nil
}

func newProblemsRemoveFieldCmd(a *app) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "remove-field",
		Short: "Delete a field from every problem document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.firestoreClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			w := cmd.OutOrStdout()
			console.FormatHeader(w, fmt.Sprintf("Remove '%s' field from '%s' collection", field, a.cfg.ProblemsCollection))
			summary, err := services.NewFieldRemover(client, a.cfg.BatchLimit).Remove(ctx, a.cfg.ProblemsCollection, field)
			console.FormatSummary(w, "FIELD REMOVAL", []console.Row{
				console.Count("Scanned", summary.Scanned, console.Plain),
				console.Count("Removed", summary.Removed, console.Good),
				console.Count("Failed", summary.Failed, console.Bad),
			})
			return err
		},
	}

	cmd.Flags().StringVar(&field, "field", services.DefaultRemovedField, "Field to delete")
	return cmd
}
